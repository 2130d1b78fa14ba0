package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/domain"
	"github.com/johnwards/treeseed/internal/store"
	"github.com/johnwards/treeseed/internal/testhelpers"
)

var _ store.ClassStore = (*store.SQLiteClassStore)(nil)

func setupClassStore(t *testing.T) *store.SQLiteClassStore {
	t.Helper()
	return store.NewSQLiteClassStore(testhelpers.NewMigratedDB(t))
}

func bookClass() *domain.Class {
	return &domain.Class{
		ID:   "BK",
		Name: "Book",
		Fields: []domain.Field{
			{Name: "title", Kind: domain.KindScalar, DataType: domain.DataString},
			{Name: "pages", Kind: domain.KindScalar, DataType: domain.DataInt},
			{Name: "author", Kind: domain.KindRelation, Targets: []string{"Book"}, Cardinality: domain.CardinalityOne},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	c, err := s.Register(ctx, bookClass())
	require.NoError(t, err)
	assert.Equal(t, "BK", c.ID)
	assert.Equal(t, "Book", c.Name)
	require.Len(t, c.Fields, 3)
	assert.Equal(t, "title", c.Fields[0].Name)
	assert.True(t, c.HasField("pages"))
	assert.False(t, c.HasField("author"), "relations are not scalar fields")
	assert.True(t, c.HasRelation("author"))
	assert.NotEmpty(t, c.CreatedAt)

	got, err := s.Get(ctx, "Book")
	require.NoError(t, err)
	assert.Equal(t, c.Fields, got.Fields)

	ok, err := s.Available(ctx, "Book")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterIdempotent(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, bookClass())
	require.NoError(t, err)
	_, err = s.Register(ctx, bookClass())
	require.NoError(t, err)

	classes, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}

func TestRegisterAddsFields(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, bookClass())
	require.NoError(t, err)

	extended := bookClass()
	extended.Fields = append(extended.Fields, domain.Field{Name: "price", Kind: domain.KindScalar, DataType: domain.DataFloat})
	c, err := s.Register(ctx, extended)
	require.NoError(t, err)
	assert.True(t, c.HasField("price"))
}

func TestRegisterAssignsID(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	a := &domain.Class{Name: "Alpha"}
	b := &domain.Class{Name: "Beta"}
	ca, err := s.Register(ctx, a)
	require.NoError(t, err)
	cb, err := s.Register(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, "1", ca.ID)
	assert.Equal(t, "2", cb.ID)
}

func TestRegisterRejectsIDChange(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, bookClass())
	require.NoError(t, err)

	other := bookClass()
	other.ID = "XX"
	_, err = s.Register(ctx, other)
	assert.ErrorIs(t, err, store.ErrInvalidClass)
}

func TestValidateClass(t *testing.T) {
	tests := map[string]struct {
		class *domain.Class
		want  error
	}{
		"nil": {nil, store.ErrInvalidClass},
		"bad name": {
			&domain.Class{Name: "drop table"}, store.ErrInvalidIdentifier,
		},
		"bad id": {
			&domain.Class{ID: "1;", Name: "Ok"}, store.ErrInvalidIdentifier,
		},
		"reserved field": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{{Name: "oo_id", Kind: domain.KindScalar, DataType: domain.DataInt}}},
			store.ErrInvalidIdentifier,
		},
		"duplicate field": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{
				{Name: "a", Kind: domain.KindScalar, DataType: domain.DataInt},
				{Name: "a", Kind: domain.KindScalar, DataType: domain.DataInt},
			}},
			store.ErrInvalidClass,
		},
		"unknown type": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{{Name: "a", Kind: domain.KindScalar, DataType: "blob"}}},
			store.ErrInvalidClass,
		},
		"relation without targets": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{{Name: "a", Kind: domain.KindRelation, Cardinality: domain.CardinalityOne}}},
			store.ErrInvalidClass,
		},
		"unknown cardinality": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{{Name: "a", Kind: domain.KindRelation, Targets: []string{"Ok"}, Cardinality: "some"}}},
			store.ErrInvalidClass,
		},
		"unknown kind": {
			&domain.Class{Name: "Ok", Fields: []domain.Field{{Name: "a", Kind: "computed"}}},
			store.ErrInvalidClass,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.ValidateClass(tc.class), tc.want)
		})
	}
	assert.NoError(t, store.ValidateClass(bookClass()))
}

func TestGetUnknownClass(t *testing.T) {
	s := setupClassStore(t)

	_, err := s.Get(context.Background(), "Nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	ok, err := s.Available(context.Background(), "Nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailableWithoutStorage(t *testing.T) {
	db := testhelpers.NewMigratedDB(t)
	s := store.NewSQLiteClassStore(db)
	ctx := context.Background()

	_, err := s.Register(ctx, bookClass())
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DROP TABLE object_store_BK`)
	require.NoError(t, err)

	ok, err := s.Available(ctx, "Book")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListOrderedByName(t *testing.T) {
	s := setupClassStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := s.Register(ctx, &domain.Class{Name: name})
		require.NoError(t, err)
	}

	classes, err := s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alpha", "Mu", "Zeta"}, names)
}
