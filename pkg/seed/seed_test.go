package seed

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/identifiers"
)

func TestDefault(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	assert.Contains(t, m.PreferredNames, "Santander")
	assert.Equal(t, "santander", m.NameTags["Banco Santander"])
}

func TestParseAndApply(t *testing.T) {
	data := []byte(`
preferred_names: [Triodos Bank]
name_tags:
  Triodos: triodos_bank
ids:
  triodos_bank:
    lei: TRIODOSLEI
    wikiid: Q123
`)
	m, err := Parse(data, "inline")
	require.NoError(t, err)

	idx := identifiers.NewIndex()
	m.Apply(idx)

	tag, ok := idx.LookupName("Triodos")
	require.True(t, ok)
	assert.Equal(t, "triodos_bank", tag)
	tag, ok = idx.Lookup(identifiers.WikiID, "Q123")
	require.True(t, ok)
	assert.Equal(t, "triodos_bank", tag)
}

func TestParseRejectsUnknownNamespace(t *testing.T) {
	_, err := Parse([]byte("ids:\n  x:\n    cusip: '1'\n"), "inline")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("preferred_names: [unterminated"), "broken.yaml")
	require.Error(t, err)
	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	url := "mem://localhost/seed/maps.yaml"
	fs := afs.New()
	require.NoError(t, fs.Upload(ctx, url, os.FileMode(0644), bytes.NewReader([]byte("preferred_names: [ING]\n"))))

	m, err := Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"ING"}, m.PreferredNames)

	_, err = Load(ctx, "mem://localhost/seed/missing.yaml")
	assert.Error(t, err)
}

func TestApplyNil(t *testing.T) {
	var m *Maps
	m.Apply(identifiers.NewIndex())
}
