package selector

import "strings"

// FilterView returns the candidates whose show value contains query,
// compared case-insensitively. An empty query keeps every candidate.
// The result is always a new slice derived from the full list.
func FilterView[T any](candidates []T, show func(T) string, query string) []T {
	needle := strings.ToLower(query)
	view := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if needle == "" || strings.Contains(strings.ToLower(show(c)), needle) {
			view = append(view, c)
		}
	}
	return view
}

// Lookup returns the first candidate whose filter value equals value.
// The comparison is exact.
func Lookup[T any](candidates []T, filter func(T) string, value string) (T, bool) {
	for _, c := range candidates {
		if filter(c) == value {
			return c, true
		}
	}
	var zero T
	return zero, false
}
