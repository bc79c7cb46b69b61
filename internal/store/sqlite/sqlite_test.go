package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", "bank")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndAll(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []store.Fields{
		{"tag": "hsbc", "name": "HSBC", "rating": nil},
		{"tag": "ing", "preserve": true, "Rank - Total": 3.0},
	}))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "hsbc", got[0].Fields.Tag())
	assert.NotContains(t, got[0].Fields, "rating")
	assert.True(t, got[1].Fields.Preserve())
	assert.Equal(t, 3.0, got[1].Fields["Rank - Total"])
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Regexp(t, `^rec`, got[0].ID)
}

func TestUpdateMergesColumns(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, []store.Fields{{"tag": "hsbc", "name": "HSBC", "website": "hsbc.com"}}))
	all, err := s.All(ctx)
	require.NoError(t, err)
	id := all[0].ID

	require.NoError(t, s.Update(ctx, []store.Update{{ID: id, Fields: store.Fields{"name": "HSBC Holdings", "website": nil}}}))

	all, err = s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Fields{"tag": "hsbc", "name": "HSBC Holdings"}, all[0].Fields)
}

func TestUnknownIDFailsBatch(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, []store.Fields{{"tag": "a"}, {"tag": "b"}}))
	all, err := s.All(ctx)
	require.NoError(t, err)

	err = s.Delete(ctx, []string{all[0].ID, "recmissing"})
	assert.True(t, errors.IsNotFound(err))

	err = s.Update(ctx, []store.Update{{ID: "recmissing", Fields: store.Fields{"name": "x"}}})
	assert.True(t, errors.IsNotFound(err))

	// Rolled back: both rows survive.
	all, err = s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Delete(ctx, []string{all[0].ID}))
	all, err = s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Fields.Tag())
}

func TestOpenValidatesTable(t *testing.T) {
	_, err := Open(context.Background(), ":memory:", "bank; DROP")
	assert.True(t, errors.IsValidationError(err))
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bankmap.db")
	ctx := context.Background()

	s, err := Open(ctx, path, "")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, []store.Fields{{"tag": "triodos"}}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, "")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "triodos", all[0].Fields.Tag())
}
