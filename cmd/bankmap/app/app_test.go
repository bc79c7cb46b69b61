package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap"
	"github.com/bankgreen/bankmap/internal/loaders"
	"github.com/bankgreen/bankmap/internal/store/memory"
	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/pipeline"
	"github.com/bankgreen/bankmap/pkg/provenance"
	"github.com/bankgreen/bankmap/pkg/seed"
	"github.com/bankgreen/bankmap/pkg/store"
)

var files = map[string]string{
	"mem://sources/banktrack.csv": "title,tag,updated_at,link,country,website\n" +
		"HSBC,hsbc,2021-03-01,https://banktrack.org/bank/hsbc,United Kingdom,https://hsbc.com\n",
	"mem://sources/custombank.csv": "Preferred Bank Name,Bank Tag,Country,Subsidiary Of Tag,Rating,Rating Reason,Website\n" +
		"Atom Bank,atom,United Kingdom,,Great,Does not lend to fossil fuels,https://atom.bank\n" +
		"Triodos Bank,triodos,Netherlands,,Great,Values bank,https://triodos.com\n",
}

func testApp(t *testing.T, config *Config, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()

	if config == nil {
		config = &Config{Store: StoreMemory, Strategy: "all", LogOutput: "discard"}
	}
	out := &bytes.Buffer{}
	base := []Option{
		WithConfig(config),
		WithLogger(logging.NewNopLogger()),
		WithOutput(out),
	}
	a, err := New("1.2.3", "abc", "2024-05-01", "test", append(base, opts...)...)
	require.NoError(t, err)

	bm, err := bankmap.New(
		bankmap.WithStages(
			pipeline.Stage{Loader: loaders.Banktrack{}, URLs: map[string]string{loaders.BanktrackInput: "mem://sources/banktrack.csv"}},
			pipeline.Stage{Loader: loaders.Custombank{}, URLs: map[string]string{loaders.CustombankInput: "mem://sources/custombank.csv"}},
		),
		bankmap.WithFetcher(pipeline.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
			data, ok := files[url]
			if !ok {
				return nil, fmt.Errorf("no such file %s", url)
			}
			return []byte(data), nil
		})),
		bankmap.WithSeed(&seed.Maps{}),
		bankmap.WithMetrics(a.metrics),
		bankmap.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)
	a.bankmap = bm
	return a, out
}

func TestBuildJSON(t *testing.T) {
	a, out := testApp(t, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"build", "--format", "json", "--log-level", "error"}))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "atom", rows[0]["tag"])
	assert.Equal(t, "triodos", rows[1]["tag"])
}

func TestBuildCSVToFile(t *testing.T) {
	a, _ := testApp(t, nil)
	path := filepath.Join(t.TempDir(), "banks.csv")

	require.NoError(t, a.Execute(context.Background(), []string{"build", "--out", path, "-q"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "tag,name,aliases,country"))
	assert.True(t, strings.HasPrefix(lines[1], "atom,"))
}

func TestBuildTableWithStats(t *testing.T) {
	a, out := testApp(t, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"build", "--format", "table", "--stats"}))

	text := strings.ToUpper(out.String())
	assert.Contains(t, text, "BANKTRACK")
	assert.Contains(t, text, "TRIODOS")
}

func TestBuildWritesProvenance(t *testing.T) {
	url := "mem://localhost/app-build/provenance.yaml"
	a, _ := testApp(t, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"build", "--format", "json", "--provenance-out", url}))

	pf, err := provenance.Load(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, pf)
	require.NotEmpty(t, pf.Provenance["atom:name"])
	assert.Equal(t, "custombank", pf.Provenance["atom:name"][0].Source)
}

func TestBuildRejectsUnknownFormat(t *testing.T) {
	a, _ := testApp(t, nil)
	assert.Error(t, a.Execute(context.Background(), []string{"build", "--format", "xml"}))
}

func TestProvenanceReport(t *testing.T) {
	a, out := testApp(t, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"provenance", "atom"}))

	text := out.String()
	assert.Contains(t, text, "Provenance Report")
	assert.Contains(t, text, "name: Atom Bank (from custombank)")
	assert.NotContains(t, text, "triodos")
}

func TestProvenanceSaveAndReload(t *testing.T) {
	url := "mem://localhost/app-provenance/prov.yaml"
	a, out := testApp(t, nil)

	require.NoError(t, a.Execute(context.Background(), []string{"provenance", "--save", url}))
	built := out.String()
	assert.Contains(t, built, "triodos")

	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"provenance", "--from", url}))
	assert.Equal(t, built, out.String())
}

func TestProvenanceFromMissingDocument(t *testing.T) {
	a, _ := testApp(t, nil)

	err := a.Execute(context.Background(), []string{"provenance", "--from", "mem://localhost/app-provenance/missing.yaml"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSync(t *testing.T) {
	remote := memory.New(memory.WithRecords(
		store.Record{ID: "rec1", Fields: store.Fields{"tag": "gone"}},
		store.Record{ID: "rec2", Fields: store.Fields{"tag": "kept", "preserve": true}},
	))
	a, out := testApp(t, nil, WithStore(remote))

	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--dry-run"}))
	assert.Contains(t, out.String(), "Dry run completed.")
	assert.Equal(t, 2, remote.Len())

	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"sync"}))
	assert.Contains(t, out.String(), "2 inserted, 0 updated, 1 deleted")

	_, ok := remote.ByTag("kept")
	assert.True(t, ok)
	_, ok = remote.ByTag("gone")
	assert.False(t, ok)
	assert.Equal(t, 3, remote.Len())
}

type insertFailingStore struct {
	*memory.Store
}

func (s insertFailingStore) Insert(context.Context, []store.Fields) error {
	return fmt.Errorf("insert refused")
}

func TestSyncReportsPartialApply(t *testing.T) {
	remote := insertFailingStore{memory.New(memory.WithRecords(
		store.Record{ID: "rec1", Fields: store.Fields{"tag": "gone"}},
	))}
	a, out := testApp(t, nil, WithStore(remote))

	err := a.Execute(context.Background(), []string{"sync"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Applied before failure: 1 deleted, 0 updated, 0 inserted")
	assert.Zero(t, remote.Len())
}

func TestSyncAdditiveKeepsRows(t *testing.T) {
	remote := memory.New(memory.WithRecords(store.Record{ID: "rec1", Fields: store.Fields{"tag": "gone"}}))
	a, out := testApp(t, nil, WithStore(remote))

	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--strategy", "additive"}))
	assert.Contains(t, out.String(), "2 inserted, 0 updated, 0 deleted")
	_, ok := remote.ByTag("gone")
	assert.True(t, ok)
}

func TestSyncRejectsUnknownStrategy(t *testing.T) {
	a, _ := testApp(t, nil)
	assert.Error(t, a.Execute(context.Background(), []string{"sync", "--strategy", "everything"}))
}

func TestSyncWritesMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankmap.prom")
	config := &Config{Store: StoreMemory, Strategy: "all", MetricsFile: path}
	a, _ := testApp(t, config)

	require.NoError(t, a.Execute(context.Background(), []string{"sync"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bankmap_store_rows_total")
}

func TestSQLiteStore(t *testing.T) {
	config := &Config{Store: StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "banks.db"), SQLiteTable: "bank"}
	a, _ := testApp(t, config)

	st, closeStore, err := a.Store(context.Background())
	require.NoError(t, err)
	defer closeStore()

	rows, err := st.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAirtableStoreRequiresKeys(t *testing.T) {
	a, _ := testApp(t, &Config{Store: StoreAirtable, AirtableTable: "bank"})
	_, _, err := a.Store(context.Background())
	assert.Error(t, err)
}

func TestBackupWithoutURLFails(t *testing.T) {
	a, _ := testApp(t, nil)
	assert.Error(t, a.Execute(context.Background(), []string{"backup"}))
}

func TestVersion(t *testing.T) {
	a, out := testApp(t, nil)
	require.NoError(t, a.Execute(context.Background(), []string{"version"}))
	assert.Contains(t, out.String(), "bankmap 1.2.3")
	assert.Contains(t, out.String(), "commit:   abc")
}

func TestWithBankmap(t *testing.T) {
	bm, err := bankmap.New(bankmap.WithSeed(&seed.Maps{}))
	require.NoError(t, err)

	a, err := New("dev", "", "", "", WithConfig(&Config{Store: StoreMemory}), WithBankmap(bm))
	require.NoError(t, err)

	got, err := a.Bankmap()
	require.NoError(t, err)
	assert.Same(t, bm, got)
}
