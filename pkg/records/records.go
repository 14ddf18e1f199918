// Package records adapts untyped records (decoded JSON, YAML or TOML objects)
// to the selector by resolving field names and CEL expressions into typed
// accessors.
package records

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/oakwood-commons/kvpick/internal/cel"
	"github.com/oakwood-commons/kvpick/pkg/selector"
)

// Record is one candidate object keyed by field name.
type Record = map[string]any

// FromAny enforces the candidate contract: v must be a list whose elements
// are all non-null objects. Any violation is a *selector.ConfigurationError.
func FromAny(v any) ([]Record, error) {
	if v == nil {
		return nil, selector.NewConfigurationError("candidates", "input is null, expected a list of objects")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, selector.NewConfigurationError("candidates", fmt.Sprintf("expected a list of objects, got %s", describe(v)))
	}

	out := make([]Record, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		rec, err := toRecord(elem)
		if err != nil {
			return nil, selector.NewConfigurationError(fmt.Sprintf("candidates[%d]", i), err.Error())
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRecord(v any) (Record, error) {
	switch m := v.(type) {
	case nil:
		return nil, fmt.Errorf("element is null")
	case map[string]any:
		if m == nil {
			return nil, fmt.Errorf("element is null")
		}
		return m, nil
	case map[any]any:
		rec := make(Record, len(m))
		for k, val := range m {
			rec[fmt.Sprint(k)] = val
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("element is %s, expected an object", describe(v))
	}
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, uint64, float64:
		return "a number"
	case map[string]any:
		return "an object"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "a list"
	case reflect.Map:
		return "an object"
	default:
		return rv.Kind().String()
	}
}

// Resolve turns a field selector into accessors over records. Plain field
// names become map lookups; anything else is compiled as a CEL expression
// with the record bound to "_".
//
// A missing field, or an expression that fails on a record, projects to "".
// Non-string values are formatted with fmt.Sprint.
func Resolve(fs selector.FieldSelector) (selector.Accessors[Record], error) {
	if err := fs.Validate(); err != nil {
		return selector.Accessors[Record]{}, err
	}

	filter, err := projection("filter", fs.FilterField())
	if err != nil {
		return selector.Accessors[Record]{}, err
	}
	show := filter
	if fs.ShowField() != fs.FilterField() {
		if show, err = projection("show", fs.ShowField()); err != nil {
			return selector.Accessors[Record]{}, err
		}
	}

	acc := selector.Accessors[Record]{Filter: filter, Show: show}
	if name := fs.GetField(); name != "" {
		get, err := valueProjection("get", name)
		if err != nil {
			return selector.Accessors[Record]{}, err
		}
		acc.Get = get
	}
	return acc, nil
}

func projection(role, field string) (func(Record) string, error) {
	if !cel.IsExpression(field) {
		return func(r Record) string { return Format(r[field]) }, nil
	}
	prg, err := cel.Compile(field)
	if err != nil {
		return nil, selector.NewConfigurationError("fields."+role, err.Error())
	}
	return func(r Record) string {
		s, err := prg.EvalString(r)
		if err != nil {
			return ""
		}
		return s
	}, nil
}

func valueProjection(role, field string) (func(Record) any, error) {
	if !cel.IsExpression(field) {
		return func(r Record) any { return r[field] }, nil
	}
	prg, err := cel.Compile(field)
	if err != nil {
		return nil, selector.NewConfigurationError("fields."+role, err.Error())
	}
	return func(r Record) any {
		v, err := prg.Eval(r)
		if err != nil {
			return nil
		}
		return v
	}, nil
}

// Format renders a field value as display text.
func Format(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// Fields returns the sorted union of field names across records.
func Fields(recs []Record) []string {
	seen := make(map[string]bool)
	for _, r := range recs {
		for k := range r {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Project returns the display text of the named fields of r, joined by sep.
func Project(r Record, fields []string, sep string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Format(r[f])
	}
	return strings.Join(parts, sep)
}
