package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldSelector(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSingle bool
		filter     string
		show       string
		get        string
		wantErr    string
	}{
		{
			name:       "bare field",
			input:      "nom",
			wantSingle: true,
			filter:     "nom",
			show:       "nom",
			get:        "",
		},
		{
			name:   "full triple",
			input:  "filter=id,show=nom,get=job",
			filter: "id",
			show:   "nom",
			get:    "job",
		},
		{
			name:   "show defaults to filter",
			input:  "filter=nom",
			filter: "nom",
			show:   "nom",
		},
		{
			name:   "filter defaults to show",
			input:  " show = nom , get = adresse ",
			filter: "nom",
			show:   "nom",
			get:    "adresse",
		},
		{
			name:    "empty",
			input:   "  ",
			wantErr: "empty",
		},
		{
			name:    "unknown role",
			input:   "filter=nom,label=x",
			wantErr: "unknown role",
		},
		{
			name:    "missing value separator",
			input:   "filter=nom,show",
			wantErr: "not key=value",
		},
		{
			name:    "only get",
			input:   "get=job",
			wantErr: "fields.filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := ParseFieldSelector(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, IsFatal(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSingle, fs.IsSingle())
			assert.Equal(t, tt.filter, fs.FilterField())
			assert.Equal(t, tt.show, fs.ShowField())
			assert.Equal(t, tt.get, fs.GetField())
		})
	}
}

func TestFieldSelectorStringRoundTrip(t *testing.T) {
	for _, fs := range []FieldSelector{
		SingleField("nom"),
		TripleField("id", "nom", "job"),
		TripleField("id", "nom", ""),
	} {
		parsed, err := ParseFieldSelector(fs.String())
		require.NoError(t, err)
		assert.Equal(t, fs, parsed)
	}
}

func TestFieldSelectorZeroValue(t *testing.T) {
	var fs FieldSelector
	assert.True(t, fs.IsZero())
	assert.Equal(t, "", fs.String())
	assert.Error(t, fs.Validate())
}

func TestFilterView(t *testing.T) {
	people := []person{ange, {Nom: "Bruno"}, {Nom: "ANGELA"}, {Nom: ""}}

	tests := []struct {
		query string
		want  []person
	}{
		{query: "", want: people},
		{query: "an", want: []person{ange, {Nom: "ANGELA"}}},
		{query: "AnGe", want: []person{ange, {Nom: "ANGELA"}}},
		{query: "bru", want: []person{{Nom: "Bruno"}}},
		{query: "xyz", want: []person{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterView(people, byNom, tt.query)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, FilterView(people, byNom, tt.query), "recomputing is idempotent")
		})
	}
}

func TestFilterViewReturnsFreshSlice(t *testing.T) {
	people := []person{ange}
	view := FilterView(people, byNom, "")
	view[0].Nom = "changed"
	assert.Equal(t, "ange", people[0].Nom)
}

func TestLookupFirstWins(t *testing.T) {
	first := person{Nom: "ange", Job: "first"}
	second := person{Nom: "ange", Job: "second"}

	got, ok := Lookup([]person{first, second}, byNom, "ange")
	require.True(t, ok)
	assert.Equal(t, "first", got.Job)

	_, ok = Lookup([]person{first}, byNom, "Ange")
	assert.False(t, ok)
}
