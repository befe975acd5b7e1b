package core

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Only the vetted persistence packages may provide concrete implementations
// of domain.PersistentStore. Additional backends require an explicit test
// update here.
func TestPersistentStoreImplementationsStaySanctioned(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes}
	pkgs, err := packages.Load(cfg, "speciescore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var persistentStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "speciescore/pkg/domain" {
			continue
		}
		obj := p.Types.Scope().Lookup("PersistentStore")
		if obj == nil {
			t.Fatalf("domain.PersistentStore not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.PersistentStore is not an interface")
		}
		persistentStore = iface
	}
	if persistentStore == nil {
		t.Fatalf("failed to resolve PersistentStore interface")
	}

	allowed := map[string]struct{}{
		"speciescore/internal/infra/persistence/memory":   {},
		"speciescore/internal/infra/persistence/sqlite":   {},
		"speciescore/internal/infra/persistence/postgres": {},
	}

	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		if !strings.HasPrefix(p.PkgPath, "speciescore/") {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			obj := p.Types.Scope().Lookup(name)
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			ptr := types.NewPointer(named)
			if !types.Implements(ptr, persistentStore) && !types.Implements(named, persistentStore) {
				continue
			}
			if _, ok := allowed[p.PkgPath]; !ok {
				unexpected = append(unexpected, p.PkgPath+"."+name)
			}
		}
	}
	if len(unexpected) > 0 {
		t.Fatalf("unsanctioned PersistentStore implementations: %v", unexpected)
	}
}
