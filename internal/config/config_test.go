package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvpick/internal/limiter"
	"github.com/oakwood-commons/kvpick/pkg/selector"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, FormatTable, cfg.Output.Format)
	assert.False(t, cfg.Required())
	assert.Equal(t, selector.DefaultDebounce, cfg.Debounce())
	assert.Equal(t, selector.DefaultValidationDelay, cfg.ValidationDelay())
	assert.False(t, cfg.Limiter().IsActive())

	_, ok := cfg.FieldSelector()
	assert.False(t, ok, "defaults name no field")
}

func TestDefaultYAMLIsACopy(t *testing.T) {
	a := DefaultYAML()
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultYAML()[0])
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `selector:
  label: Personne
  required: true
  debounce_ms: 0
fields:
  filter: nom
  show: _.nom + " - " + _.job
output:
  format: json
  limit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Personne", cfg.Selector.Label)
	assert.True(t, cfg.Required())
	assert.Equal(t, time.Duration(0), cfg.Debounce(), "explicit zero overrides the default")
	assert.Equal(t, 300*time.Millisecond, cfg.ValidationDelay(), "unset keeps the default")
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, limiter.Config{Limit: 5}, cfg.Limiter())

	fs, ok := cfg.FieldSelector()
	require.True(t, ok)
	assert.Equal(t, "nom", fs.FilterField())
	assert.Equal(t, `_.nom + " - " + _.job`, fs.ShowField())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("selector:\n  colour: red\n"), 0o644))
	_, err = Load(unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg, err := Load(empty)
	require.NoError(t, err)
	assert.Equal(t, FormatTable, cfg.Output.Format)
}

func TestMergeFieldsReplaceWholeBlock(t *testing.T) {
	base := Config{Fields: FieldsConfig{Field: "nom"}}
	got := Merge(base, Config{Fields: FieldsConfig{Filter: "id", Show: "nom"}})
	assert.Equal(t, FieldsConfig{Filter: "id", Show: "nom"}, got.Fields)

	got = Merge(base, Config{Selector: SelectorConfig{Label: "x"}})
	assert.Equal(t, FieldsConfig{Field: "nom"}, got.Fields, "empty block keeps base")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "zero config", cfg: Config{}},
		{
			name:      "negative debounce",
			cfg:       Config{Selector: SelectorConfig{DebounceMS: intPtr(-1)}},
			wantField: "selector.debounce_ms",
		},
		{
			name:      "negative validation delay",
			cfg:       Config{Selector: SelectorConfig{ValidationDelayMS: intPtr(-5)}},
			wantField: "selector.validation_delay_ms",
		},
		{
			name:      "unknown format",
			cfg:       Config{Output: OutputConfig{Format: "csv"}},
			wantField: "output.format",
		},
		{
			name:      "limit and tail",
			cfg:       Config{Output: OutputConfig{Limit: intPtr(1), Tail: intPtr(1)}},
			wantField: "output",
		},
		{
			name:      "single and triple",
			cfg:       Config{Fields: FieldsConfig{Field: "nom", Show: "job"}},
			wantField: "fields",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var ce *selector.ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantField, ce.Field)
			assert.True(t, selector.IsFatal(err))
		})
	}
}

func TestFieldSelector(t *testing.T) {
	tests := []struct {
		name       string
		fields     FieldsConfig
		wantSingle bool
		wantFilter string
		wantShow   string
	}{
		{name: "single", fields: FieldsConfig{Field: "nom"}, wantSingle: true, wantFilter: "nom", wantShow: "nom"},
		{name: "triple", fields: FieldsConfig{Filter: "id", Show: "nom", Get: "job"}, wantFilter: "id", wantShow: "nom"},
		{name: "show only", fields: FieldsConfig{Show: "nom"}, wantFilter: "nom", wantShow: "nom"},
		{name: "filter only", fields: FieldsConfig{Filter: "id"}, wantFilter: "id", wantShow: "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, ok := Config{Fields: tt.fields}.FieldSelector()
			require.True(t, ok)
			assert.Equal(t, tt.wantSingle, fs.IsSingle())
			assert.Equal(t, tt.wantFilter, fs.FilterField())
			assert.Equal(t, tt.wantShow, fs.ShowField())
			require.NoError(t, fs.Validate())
		})
	}
}

func TestApplyTo(t *testing.T) {
	run := settings.NewCliParams()
	Config{
		Selector: SelectorConfig{DebounceMS: intPtr(50), Required: boolPtr(true)},
		Output:   OutputConfig{Format: FormatYAML},
	}.ApplyTo(run)

	assert.Equal(t, 50*time.Millisecond, run.Debounce)
	assert.Equal(t, selector.DefaultValidationDelay, run.ValidationDelay)
	assert.Equal(t, FormatYAML, run.Output)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	assert.Equal(t, "", ResolvePath(""), "no file yet")

	dir := filepath.Join(xdg, settings.CliBinaryName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0o644))
	assert.Equal(t, path, ResolvePath(""))
}

func TestMarshalRoundTripsThroughDecode(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "selector:"))

	back, err := Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
