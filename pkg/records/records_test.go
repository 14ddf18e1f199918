package records

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvpick/pkg/selector"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantLen   int
		wantField string
		wantErr   string
	}{
		{
			name:    "list of objects",
			input:   []any{map[string]any{"nom": "ange"}, map[string]any{"nom": "bruno"}},
			wantLen: 2,
		},
		{
			name:    "empty list",
			input:   []any{},
			wantLen: 0,
		},
		{
			name:    "yaml style keys",
			input:   []any{map[any]any{"nom": "ange", 1: "one"}},
			wantLen: 1,
		},
		{
			name:      "null element",
			input:     []any{nil},
			wantField: "candidates[0]",
			wantErr:   "element is null",
		},
		{
			name:      "scalar element",
			input:     []any{map[string]any{"nom": "ange"}, "bruno"},
			wantField: "candidates[1]",
			wantErr:   "a string",
		},
		{
			name:      "nested list element",
			input:     []any{[]any{1}},
			wantField: "candidates[0]",
			wantErr:   "a list",
		},
		{
			name:      "object instead of list",
			input:     map[string]any{"nom": "ange"},
			wantField: "candidates",
			wantErr:   "got an object",
		},
		{
			name:      "null input",
			input:     nil,
			wantField: "candidates",
			wantErr:   "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ce *selector.ConfigurationError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.wantField, ce.Field)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestFromAnyConvertsYAMLKeys(t *testing.T) {
	got, err := FromAny([]any{map[any]any{"nom": "ange", 7: "sept"}})
	require.NoError(t, err)
	assert.Equal(t, Record{"nom": "ange", "7": "sept"}, got[0])
}

func TestResolveSingleField(t *testing.T) {
	acc, err := Resolve(selector.SingleField("nom"))
	require.NoError(t, err)

	rec := Record{"nom": "ange", "job": "developper"}
	assert.Equal(t, "ange", acc.Filter(rec))
	assert.Equal(t, "ange", acc.Show(rec))
	assert.Nil(t, acc.Get, "a single field emits the record itself")
	assert.Equal(t, "", acc.Show(Record{"job": "x"}), "missing field projects to empty")
}

func TestResolveTripleField(t *testing.T) {
	acc, err := Resolve(selector.TripleField("id", "nom", "job"))
	require.NoError(t, err)

	rec := Record{"id": int64(7), "nom": "ange", "job": "developper"}
	assert.Equal(t, "7", acc.Filter(rec), "non-string values are formatted")
	assert.Equal(t, "ange", acc.Show(rec))
	assert.Equal(t, "developper", acc.Get(rec))

	noGet, err := Resolve(selector.TripleField("id", "nom", ""))
	require.NoError(t, err)
	assert.Nil(t, noGet.Get)
}

func TestResolveExpressions(t *testing.T) {
	acc, err := Resolve(selector.TripleField("nom", `_.nom + " - " + _.job`, `{"who": _.nom}`))
	require.NoError(t, err)

	rec := Record{"nom": "ange", "job": "developper"}
	assert.Equal(t, "ange", acc.Filter(rec))
	assert.Equal(t, "ange - developper", acc.Show(rec))
	assert.Equal(t, map[string]any{"who": "ange"}, acc.Get(rec))
	assert.Equal(t, "", acc.Show(Record{"nom": "bruno"}), "failing expression projects to empty")
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve(selector.FieldSelector{})
	require.Error(t, err)

	_, err = Resolve(selector.TripleField("nom", "_.nom +", ""))
	require.Error(t, err)
	var ce *selector.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "fields.show", ce.Field)
}

func TestResolvedAccessorsDriveSelector(t *testing.T) {
	recs, err := FromAny([]any{
		map[string]any{"nom": "ange", "adresse": "2545 avenu lamber", "job": "developper"},
	})
	require.NoError(t, err)
	acc, err := Resolve(selector.SingleField("nom"))
	require.NoError(t, err)

	sel, err := selector.New(recs, acc)
	require.NoError(t, err)
	defer sel.Close()

	got, err := sel.Validate("ange")
	require.NoError(t, err)
	assert.Equal(t, "developper", got["job"])
	assert.Equal(t, recs[0], sel.Emit(got))
	assert.Equal(t, recs, selector.FilterView(recs, acc.Show, "AN"))
}

func TestFieldsAndProject(t *testing.T) {
	recs := []Record{
		{"nom": "ange", "job": "developper"},
		{"nom": "bruno", "age": 40},
	}
	assert.Equal(t, []string{"age", "job", "nom"}, Fields(recs))
	assert.Equal(t, "40 |  | bruno", Project(recs[1], []string{"age", "job", "nom"}, " | "))
}
