package domain_test

import (
	"testing"

	"speciescore/testutil"
)

// The domain package is the dependency root: it must never reach back into
// internal packages.
func TestDomainImportsNoInternalPackages(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/domain must not depend on internal packages")
}
