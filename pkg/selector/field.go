package selector

import (
	"fmt"
	"strings"
)

// Accessors are the typed projections the selector applies to each candidate.
// They are resolved once at construction time.
type Accessors[T any] struct {
	Filter func(T) string // compared for exact-match validation
	Show   func(T) string // filtered on and displayed in the input
	Get    func(T) any    // emitted to the parent; nil emits the candidate itself
}

// validate checks the accessors required by the selector.
func (a Accessors[T]) validate() error {
	if a.Filter == nil {
		return NewConfigurationError("accessors.filter", "accessor is nil")
	}
	if a.Show == nil {
		return NewConfigurationError("accessors.show", "accessor is nil")
	}
	return nil
}

// SameField returns accessors that use one projection for filtering and display.
func SameField[T any](fn func(T) string) Accessors[T] {
	return Accessors[T]{Filter: fn, Show: fn}
}

type fieldKind int

const (
	fieldUnset fieldKind = iota
	fieldSingle
	fieldTriple
)

// FieldSelector names the record fields used for filtering, display and emission.
// It is either a single shared field or a {filter, show, get} triple.
type FieldSelector struct {
	kind   fieldKind
	filter string
	show   string
	get    string
}

// SingleField uses name for filtering and display. A selection emits the
// whole record.
func SingleField(name string) FieldSelector {
	return FieldSelector{kind: fieldSingle, filter: name, show: name}
}

// TripleField names each role separately. An empty get emits the whole record.
func TripleField(filter, show, get string) FieldSelector {
	return FieldSelector{kind: fieldTriple, filter: filter, show: show, get: get}
}

// IsSingle reports whether fs was built with SingleField.
func (fs FieldSelector) IsSingle() bool { return fs.kind == fieldSingle }

// IsZero reports whether fs was never set.
func (fs FieldSelector) IsZero() bool { return fs.kind == fieldUnset }

// FilterField returns the field compared during validation.
func (fs FieldSelector) FilterField() string { return fs.filter }

// ShowField returns the field filtered on and displayed.
func (fs FieldSelector) ShowField() string { return fs.show }

// GetField returns the field emitted on selection, or "" when the record
// itself is emitted.
func (fs FieldSelector) GetField() string { return fs.get }

// Validate checks that the selector names the fields it needs.
func (fs FieldSelector) Validate() error {
	switch fs.kind {
	case fieldUnset:
		return NewConfigurationError("field", "no field selector configured")
	case fieldSingle:
		if strings.TrimSpace(fs.filter) == "" {
			return NewConfigurationError("field", "field name is empty")
		}
	case fieldTriple:
		if strings.TrimSpace(fs.filter) == "" {
			return NewConfigurationError("fields.filter", "field name is empty")
		}
		if strings.TrimSpace(fs.show) == "" {
			return NewConfigurationError("fields.show", "field name is empty")
		}
	}
	return nil
}

// String renders fs in the form accepted by ParseFieldSelector.
func (fs FieldSelector) String() string {
	switch fs.kind {
	case fieldSingle:
		return fs.filter
	case fieldTriple:
		s := fmt.Sprintf("filter=%s,show=%s", fs.filter, fs.show)
		if fs.get != "" {
			s += ",get=" + fs.get
		}
		return s
	default:
		return ""
	}
}

// ParseFieldSelector accepts either a bare field name ("nom") or a
// comma-separated triple ("filter=nom,show=nom,get=job").
// Omitted triple entries fall back to the filter field, except get.
func ParseFieldSelector(s string) (FieldSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FieldSelector{}, NewConfigurationError("field", "field selector is empty")
	}
	if !strings.Contains(s, "=") {
		fs := SingleField(s)
		return fs, fs.Validate()
	}

	var filter, show, get string
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return FieldSelector{}, NewConfigurationError("fields", fmt.Sprintf("entry %q is not key=value", part))
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "filter":
			filter = value
		case "show":
			show = value
		case "get":
			get = value
		default:
			return FieldSelector{}, NewConfigurationError("fields", fmt.Sprintf("unknown role %q (expected filter, show or get)", key))
		}
	}
	if show == "" {
		show = filter
	}
	if filter == "" {
		filter = show
	}
	fs := TripleField(filter, show, get)
	return fs, fs.Validate()
}
