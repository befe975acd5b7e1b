package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"speciescore/internal/infra/blob/core"
)

func TestPutGetHeadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "snapshots/7.json", strings.NewReader(`{"id":7}`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" {
		t.Fatalf("expected digest etag")
	}

	head, err := store.Head(ctx, "snapshots/7.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != info.Size || head.ETag != info.ETag {
		t.Fatalf("head mismatch: %+v vs %+v", head, info)
	}

	_, rc, err := store.Get(ctx, "snapshots/7.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != `{"id":7}` {
		t.Fatalf("unexpected content %q err %v", data, err)
	}

	existed, err := store.Delete(ctx, "snapshots/7.json")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "snapshots/7.json"); err == nil {
		t.Fatalf("expected head to fail after delete")
	}
}

func TestKeySanitization(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/abs", "../escape", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestListWalksSidecars(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"reports/a.csv", "reports/b.csv", "other/c.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
}
