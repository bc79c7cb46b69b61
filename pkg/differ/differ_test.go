package differ

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/pkg/errors"
	"github.com/bankgreen/bankmap/pkg/store"
)

func rec(id, tag string, preserve bool, extra store.Fields) store.Record {
	f := store.Fields{"tag": tag}
	if preserve {
		f["preserve"] = true
	}
	for k, v := range extra {
		f[k] = v
	}
	return store.Record{ID: id, Fields: f}
}

func TestIsEmptyish(t *testing.T) {
	empty := []any{nil, "None", "nan", "-", "", "   \t", math.NaN(), []any{}, []string{}, (*float64)(nil), []any{"-"}}
	for _, v := range empty {
		assert.True(t, IsEmptyish(v), "%#v", v)
	}

	present := []any{"ok", 0, 0.0, false, "none", " - x", []any{"a"}, "NaN value"}
	for _, v := range present {
		assert.False(t, IsEmptyish(v), "%#v", v)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{"None", ""},
		{12.5, "12.5"},
		{3, "3"},
		{3.0, "3"},
		{true, "true"},
		{[]any{"Argentina", "Mexico"}, "Argentina,Mexico"},
		{[]string{"a"}, "a"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), "%#v", tt.in)
	}
}

func TestDiffSets(t *testing.T) {
	remote := []store.Record{
		rec("id1", "a", false, nil),
		rec("id2", "b", true, nil),
	}
	local := []store.Fields{{"tag": "c", "name": "C"}}

	cs := New().Diff(local, remote)

	assert.Equal(t, []string{"id1"}, cs.DeleteIDs())
	assert.Equal(t, []string{"c"}, cs.InsertTags())
	assert.Empty(t, cs.Updated)
	assert.Equal(t, 1, cs.Summary.Preserved)
	assert.Equal(t, 2, cs.Summary.TotalChanges)
}

func TestPreserveRequiresBooleanTrue(t *testing.T) {
	remote := []store.Record{
		{ID: "id1", Fields: store.Fields{"tag": "a", "preserve": "true"}},
		{ID: "id2", Fields: store.Fields{"tag": "b", "preserve": false}},
	}
	cs := New().Diff(nil, remote)
	assert.Equal(t, []string{"id1", "id2"}, cs.DeleteIDs())
}

func TestPreservedColumn(t *testing.T) {
	d := New(WithPreserveColumns("rating"))

	changes := d.Row(rec("id1", "a", false, store.Fields{"rating": "ok"}), store.Fields{"tag": "a", "rating": "better"})
	assert.Empty(t, changes)

	changes = d.Row(rec("id1", "a", false, store.Fields{"rating": "-"}), store.Fields{"tag": "a", "rating": "better"})
	require.Len(t, changes, 1)
	assert.Equal(t, "rating", changes[0].Column)
	assert.Equal(t, "better", changes[0].Value)
}

func TestColumnRules(t *testing.T) {
	d := New(WithPreserveColumns("reason"))

	tests := []struct {
		name   string
		column string
		stored any
		local  any
		write  bool
		value  any
	}{
		{"local wins", "name", "Old", "New", true, "New"},
		{"empty local keeps remote", "name", "Old", "", false, nil},
		{"nan local keeps remote", "name", "Old", math.NaN(), false, nil},
		{"equal skipped", "name", "Same", "Same", false, nil},
		{"list remote first element equal", "country", []any{"Mexico"}, "Mexico", false, nil},
		{"list remote joined differs", "country", []any{"Argentina", "Mexico"}, "Argentina", true, "Argentina"},
		{"empty list remote", "website", []any{}, "https://x", true, "https://x"},
		{"both empty", "website", "None", nil, false, nil},
		{"number equal", "total-USD", 12.5, 12.5, false, nil},
		{"number changed", "total-USD", 12.5, 13.0, true, 13.0},
		{"preserved filled", "reason", "human", "machine", false, nil},
		{"preserved blank", "reason", "  ", "machine", true, "machine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := d.Row(
				rec("id", "a", false, store.Fields{tt.column: tt.stored}),
				store.Fields{"tag": "a", tt.column: tt.local},
			)
			if !tt.write {
				assert.Empty(t, changes)
				return
			}
			require.Len(t, changes, 1)
			assert.Equal(t, tt.column, changes[0].Column)
			assert.Equal(t, tt.value, changes[0].Value)
		})
	}
}

func TestIgnoredFields(t *testing.T) {
	d := New(WithIgnoredFields("name"))
	changes := d.Row(rec("id", "a", false, store.Fields{"name": "Old"}), store.Fields{"tag": "a", "name": "New"})
	assert.Empty(t, changes)
}

func TestInsertDropsEmptyFields(t *testing.T) {
	local := []store.Fields{{
		"tag":       "c",
		"name":      "C",
		"website":   "",
		"reason":    "None",
		"total-USD": math.NaN(),
		"lei":       "-",
		"rank":      4,
	}}
	cs := New().Diff(local, nil)
	require.Len(t, cs.Inserted, 1)
	assert.Equal(t, store.Fields{"tag": "c", "name": "C", "rank": 4}, cs.Inserted[0])
}

func TestPreservedRowsAreNotUpdated(t *testing.T) {
	remote := []store.Record{rec("id1", "a", true, store.Fields{"name": "Human Name"})}
	cs := New().Diff([]store.Fields{{"tag": "a", "name": "Machine Name"}}, remote)
	assert.True(t, cs.IsEmpty())
	assert.Equal(t, 1, cs.Summary.Preserved)
}

func TestUpdatesPayload(t *testing.T) {
	remote := []store.Record{rec("id1", "a", false, store.Fields{"name": "Old", "rating": "ok"})}
	cs := New().Diff([]store.Fields{{"tag": "a", "name": "New", "rating": "ok"}}, remote)

	require.Len(t, cs.Updated, 1)
	assert.Equal(t, []store.Update{{ID: "id1", Fields: store.Fields{"name": "New"}}}, cs.Updates())
	assert.Equal(t, "Changeset: 1 updated (Total: 1 changes)", cs.String())
}

// apply mimics a store accepting the changeset.
func apply(remote []store.Record, cs *Changeset) []store.Record {
	deleted := make(map[string]bool)
	for _, id := range cs.DeleteIDs() {
		deleted[id] = true
	}
	updates := make(map[string]store.Fields)
	for _, u := range cs.Updates() {
		updates[u.ID] = u.Fields
	}

	var out []store.Record
	for _, r := range remote {
		if deleted[r.ID] {
			continue
		}
		f := r.Fields.Clone()
		for k, v := range updates[r.ID] {
			f[k] = v
		}
		out = append(out, store.Record{ID: r.ID, Fields: f})
	}
	for i, f := range cs.Inserted {
		out = append(out, store.Record{ID: "new" + string(rune('a'+i)), Fields: f.Clone()})
	}
	return out
}

func TestIdempotent(t *testing.T) {
	d := New(WithPreserveColumns("reason"))
	local := []store.Fields{
		{"tag": "a", "name": "A", "reason": "generated", "total-USD": 1.5, "website": ""},
		{"tag": "b", "name": "B", "reason": "", "total-USD": nil},
		{"tag": "c", "name": "C", "reason": "x", "total-USD": math.NaN()},
	}
	remote := []store.Record{
		rec("id1", "a", false, store.Fields{"name": "Old A", "reason": "human", "website": []any{"https://old"}}),
		rec("id2", "gone", false, nil),
		rec("id3", "kept", true, store.Fields{"name": "Kept"}),
		rec("id4", "b", false, store.Fields{"name": "B", "reason": "-"}),
	}

	first := d.Diff(local, remote)
	require.True(t, first.HasChanges())

	second := d.Diff(local, apply(remote, first))
	assert.True(t, second.IsEmpty(), second.String())
	assert.Equal(t, 1, second.Summary.Preserved)
}

func TestFilter(t *testing.T) {
	remote := []store.Record{rec("id1", "a", false, nil), rec("id2", "b", false, store.Fields{"name": "x"})}
	local := []store.Fields{{"tag": "b", "name": "y"}, {"tag": "c"}}
	cs := New().Diff(local, remote)
	require.Equal(t, 3, cs.Summary.TotalChanges)

	assert.Same(t, cs, cs.Filter(ApplyAll))

	additive := cs.Filter(ApplyAdditive)
	assert.Empty(t, additive.Deleted)
	assert.Equal(t, 2, additive.Summary.TotalChanges)

	assert.Equal(t, 1, cs.Filter(ApplyUpdatesOnly).Summary.Updated)
	assert.Equal(t, 1, cs.Filter(ApplyAdditionsOnly).Summary.Inserted)
}

func TestPrefix(t *testing.T) {
	remote := []store.Record{rec("id1", "a", false, nil), rec("id2", "b", false, store.Fields{"name": "x"})}
	local := []store.Fields{{"tag": "b", "name": "y"}, {"tag": "c"}, {"tag": "d"}}
	cs := New().Diff(local, remote)

	p := cs.Prefix(1, 0, 5)
	assert.Len(t, p.Deleted, 1)
	assert.Empty(t, p.Updated)
	assert.Len(t, p.Inserted, 2)
	assert.Equal(t, 3, p.Summary.TotalChanges)

	none := cs.Prefix(-1, 0, 0)
	assert.False(t, none.HasChanges())
	assert.Equal(t, 4, cs.Summary.TotalChanges)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Additive")
	require.NoError(t, err)
	assert.Equal(t, ApplyAdditive, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, ApplyAll, s)

	_, err = ParseStrategy("sometimes")
	assert.True(t, errors.IsValidationError(err))
}

func TestPrint(t *testing.T) {
	remote := []store.Record{rec("id1", "gone", false, nil), rec("id2", "b", false, store.Fields{"name": "x"})}
	local := []store.Fields{{"tag": "b", "name": "y"}, {"tag": "c", "name": "C Bank"}}

	var buf bytes.Buffer
	New().Diff(local, remote).Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "1 inserted, 1 updated, 1 deleted")
	assert.Contains(t, out, "c (C Bank)")
	assert.Contains(t, out, "name: x → y")
	assert.Contains(t, out, "gone [id1]")
}

func TestEmptyChangesetString(t *testing.T) {
	cs := New().Diff(nil, nil)
	assert.Equal(t, "No changes detected", cs.String())
	var buf bytes.Buffer
	cs.Print(&buf)
	assert.Equal(t, "No changes detected\n", buf.String())
}
