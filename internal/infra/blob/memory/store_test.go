package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"speciescore/internal/infra/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "snapshots/1.json", strings.NewReader(`{"id":1}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"format": "json"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 {
		t.Fatalf("unexpected size %d", info.Size)
	}

	got, rc, err := store.Get(ctx, "snapshots/1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"id":1}` {
		t.Fatalf("unexpected content %q", data)
	}
	if got.ContentType != "application/json" || got.Metadata["format"] != "json" {
		t.Fatalf("metadata lost: %+v", got)
	}

	if _, err := store.Put(ctx, "snapshots/1.json", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only semantics")
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"snapshots/1.json", "snapshots/2.json", "reports/a.csv"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(infos))
	}
	if infos[0].Key != "snapshots/1.json" || infos[1].Key != "snapshots/2.json" {
		t.Fatalf("unexpected ordering: %v", infos)
	}
}

func TestDeleteAndPresign(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "a", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "a")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "a")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.PresignURL(ctx, "a", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
