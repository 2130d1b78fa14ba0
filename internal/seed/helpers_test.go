package seed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/catalog"
	"github.com/johnwards/treeseed/internal/domain"
	"github.com/johnwards/treeseed/internal/seed"
)

// bookingClasses returns the built-in catalog keyed by class name.
func bookingClasses(t *testing.T) map[string]*domain.Class {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	out := make(map[string]*domain.Class, len(cat.Classes))
	for i := range cat.Classes {
		out[cat.Classes[i].Name] = &cat.Classes[i]
	}
	return out
}

// fill adds n in-memory instances of class to reg with ids base+1..base+n.
func fill(reg *seed.Registry, class string, n int, base int64) {
	for i := 1; i <= n; i++ {
		reg.Add(class, i, &domain.Object{ID: base + int64(i), Type: domain.TypeObject, ClassName: class})
	}
}
