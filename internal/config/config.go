// Package config loads the kvpick CLI configuration: an embedded YAML
// default with an optional user file merged on top.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvpick/internal/limiter"
	"github.com/oakwood-commons/kvpick/pkg/selector"
	"github.com/oakwood-commons/kvpick/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// Output formats accepted by the CLI.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config is the merged CLI configuration.
type Config struct {
	Selector SelectorConfig `yaml:"selector" json:"selector"`
	Fields   FieldsConfig   `yaml:"fields" json:"fields"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// SelectorConfig mirrors the selector options. Nil pointers mean "not set"
// so a user file can override a default with a zero value.
type SelectorConfig struct {
	Label             string `yaml:"label,omitempty" json:"label,omitempty"`
	Required          *bool  `yaml:"required,omitempty" json:"required,omitempty"`
	DebounceMS        *int   `yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty"`
	ValidationDelayMS *int   `yaml:"validation_delay_ms,omitempty" json:"validation_delay_ms,omitempty"`
}

// FieldsConfig is either a single Field or the Filter/Show/Get roles.
type FieldsConfig struct {
	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
	Show   string `yaml:"show,omitempty" json:"show,omitempty"`
	Get    string `yaml:"get,omitempty" json:"get,omitempty"`
}

// OutputConfig selects the output format and the view window.
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Limit  *int   `yaml:"limit,omitempty" json:"limit,omitempty"`
	Offset *int   `yaml:"offset,omitempty" json:"offset,omitempty"`
	Tail   *int   `yaml:"tail,omitempty" json:"tail,omitempty"`
}

// DefaultYAML returns a copy of the embedded default config.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded default config.
func Default() (Config, error) {
	if len(embeddedDefaultConfig) == 0 {
		return Config{}, fmt.Errorf("embedded default config is empty")
	}
	cfg, err := Decode(bytes.NewReader(embeddedDefaultConfig))
	if err != nil {
		return Config{}, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Decode reads one YAML config document. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Load returns the defaults merged with the file at path. An empty path
// yields the defaults alone.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	user, err := Decode(f)
	if err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return Merge(cfg, user), nil
}

// Merge overlays override on base. Set scalars win. A fields block that
// names anything replaces the base block as a whole, so single and triple
// selectors never mix across layers.
func Merge(base, override Config) Config {
	out := base
	if override.Selector.Label != "" {
		out.Selector.Label = override.Selector.Label
	}
	if override.Selector.Required != nil {
		out.Selector.Required = override.Selector.Required
	}
	if override.Selector.DebounceMS != nil {
		out.Selector.DebounceMS = override.Selector.DebounceMS
	}
	if override.Selector.ValidationDelayMS != nil {
		out.Selector.ValidationDelayMS = override.Selector.ValidationDelayMS
	}
	if override.Fields != (FieldsConfig{}) {
		out.Fields = override.Fields
	}
	if override.Output.Format != "" {
		out.Output.Format = override.Output.Format
	}
	if override.Output.Limit != nil {
		out.Output.Limit = override.Output.Limit
	}
	if override.Output.Offset != nil {
		out.Output.Offset = override.Output.Offset
	}
	if override.Output.Tail != nil {
		out.Output.Tail = override.Output.Tail
	}
	return out
}

// Validate rejects negative delays, unknown formats, conflicting windows
// and a fields block that is both single and triple.
func (c Config) Validate() error {
	if v := c.Selector.DebounceMS; v != nil && *v < 0 {
		return selector.NewConfigurationError("selector.debounce_ms", fmt.Sprintf("must be non-negative, got %d", *v))
	}
	if v := c.Selector.ValidationDelayMS; v != nil && *v < 0 {
		return selector.NewConfigurationError("selector.validation_delay_ms", fmt.Sprintf("must be non-negative, got %d", *v))
	}
	switch c.Output.Format {
	case "", FormatTable, FormatJSON, FormatYAML:
	default:
		return selector.NewConfigurationError("output.format", fmt.Sprintf("unknown format %q (use table|json|yaml)", c.Output.Format))
	}
	if err := c.Limiter().Validate(); err != nil {
		return selector.NewConfigurationError("output", err.Error())
	}
	f := c.Fields
	if f.Field != "" && (f.Filter != "" || f.Show != "" || f.Get != "") {
		return selector.NewConfigurationError("fields", "set either field or filter/show/get, not both")
	}
	return nil
}

// FieldSelector converts the fields block. ok is false when nothing is set.
func (c Config) FieldSelector() (fs selector.FieldSelector, ok bool) {
	f := c.Fields
	switch {
	case f.Field != "":
		return selector.SingleField(f.Field), true
	case f.Filter != "" || f.Show != "":
		filter, show := f.Filter, f.Show
		if filter == "" {
			filter = show
		}
		if show == "" {
			show = filter
		}
		return selector.TripleField(filter, show, f.Get), true
	default:
		return selector.FieldSelector{}, false
	}
}

// Required reports whether the selector is required. Unset means false.
func (c Config) Required() bool {
	return c.Selector.Required != nil && *c.Selector.Required
}

// Debounce returns the configured debounce, or the selector default.
func (c Config) Debounce() time.Duration {
	return millis(c.Selector.DebounceMS, selector.DefaultDebounce)
}

// ValidationDelay returns the configured validation delay, or the selector default.
func (c Config) ValidationDelay() time.Duration {
	return millis(c.Selector.ValidationDelayMS, selector.DefaultValidationDelay)
}

// Limiter returns the view window.
func (c Config) Limiter() limiter.Config {
	return limiter.Config{
		Limit:  deref(c.Output.Limit),
		Offset: deref(c.Output.Offset),
		Tail:   deref(c.Output.Tail),
	}
}

// ApplyTo copies the config into run settings.
func (c Config) ApplyTo(run *settings.Run) {
	run.Debounce = c.Debounce()
	run.ValidationDelay = c.ValidationDelay()
	if c.Output.Format != "" {
		run.Output = c.Output.Format
	}
}

// ResolvePath returns explicit if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/kvpick/config.yaml) or ~/.config/kvpick/config.yaml
// when that file exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// Marshal renders c as YAML.
func (c Config) Marshal() (string, error) {
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func millis(v *int, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
