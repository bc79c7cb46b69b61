package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/logging"
	"github.com/bankgreen/bankmap/pkg/store"
)

type call struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   writeRequest
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []call
	pages  []listResponse
	status int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Auth: r.Header.Get("Authorization")}
	if r.Body != nil && (r.Method == http.MethodPatch || r.Method == http.MethodPost) {
		_ = json.NewDecoder(r.Body).Decode(&c.Body)
	}
	f.calls = append(f.calls, c)

	if f.status != 0 {
		http.Error(w, `{"error":"boom"}`, f.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		_, _ = w.Write([]byte(`{"records":[]}`))
		return
	}
	page := 0
	if off := r.URL.Query().Get("offset"); off != "" {
		page = int(off[0] - '0')
	}
	_ = json.NewEncoder(w).Encode(f.pages[page])
}

func (f *fakeAPI) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func newTestStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s, err := New(
		Config{APIKey: "key", BaseKey: "app123", Table: "bank"},
		WithEndpoint(srv.URL+"/v0"),
		WithRateLimit(0, 0),
		WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)
	return s
}

func TestNewRequiresConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing key", Config{BaseKey: "b", Table: "t"}},
		{"missing base", Config{APIKey: "k", Table: "t"}},
		{"missing table", Config{APIKey: "k", BaseKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var cfgErr *errors.ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestAllFollowsOffset(t *testing.T) {
	api := &fakeAPI{pages: []listResponse{
		{Records: []record{{ID: "rec1", Fields: store.Fields{"tag": "hsbc"}}}, Offset: "1"},
		{Records: []record{{ID: "rec2", Fields: store.Fields{"tag": "ing", "preserve": true}}, {ID: "rec3"}}},
	}}
	s := newTestStore(t, api)

	got, err := s.All(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "hsbc", got[0].Fields.Tag())
	assert.True(t, got[1].Fields.Preserve())
	assert.NotNil(t, got[2].Fields)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/v0/app123/bank", calls[0].Path)
	assert.Equal(t, "Bearer key", calls[0].Auth)
	assert.Equal(t, []string{"100"}, calls[0].Query["pageSize"])
	assert.Empty(t, calls[0].Query["offset"])
	assert.Equal(t, []string{"1"}, calls[1].Query["offset"])
}

func TestDeleteChunksIDs(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(t, api)

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = "rec" + strings.Repeat("x", i+1)
	}
	require.NoError(t, s.Delete(context.Background(), ids))

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Len(t, calls[0].Query["records[]"], 10)
	assert.Len(t, calls[1].Query["records[]"], 2)
}

func TestUpdateAndInsertBodies(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(t, api)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, []store.Update{{ID: "rec1", Fields: store.Fields{"rating": "ok"}}}))
	require.NoError(t, s.Insert(ctx, []store.Fields{{"tag": "new", "name": "New Bank"}}))

	calls := api.Calls()
	require.Len(t, calls, 2)

	patch := calls[0]
	assert.Equal(t, http.MethodPatch, patch.Method)
	assert.True(t, patch.Body.Typecast)
	require.Len(t, patch.Body.Records, 1)
	assert.Equal(t, "rec1", patch.Body.Records[0].ID)
	assert.Equal(t, "ok", patch.Body.Records[0].Fields["rating"])

	post := calls[1]
	assert.Equal(t, http.MethodPost, post.Method)
	assert.True(t, post.Body.Typecast)
	require.Len(t, post.Body.Records, 1)
	assert.Empty(t, post.Body.Records[0].ID)
	assert.Equal(t, "new", post.Body.Records[0].Fields.Tag())
}

func TestErrorsAreTyped(t *testing.T) {
	api := &fakeAPI{status: http.StatusTooManyRequests}
	s := newTestStore(t, api)

	err := s.Insert(context.Background(), []store.Fields{{"tag": "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	// A failing chunk stops the remaining ones.
	api.reset()
	err = s.Delete(context.Background(), make([]string, 25))
	require.Error(t, err)
	assert.Len(t, api.Calls(), 1)
}
