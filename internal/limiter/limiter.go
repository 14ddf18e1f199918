package limiter

import "fmt"

// Config holds the view-windowing parameters.
type Config struct {
	Limit  int // Show only this many candidates (0 = unlimited)
	Offset int // Skip the first N candidates (0 = no skip)
	Tail   int // Show only the last N candidates (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations.
// Rules:
// - Limit and Tail are mutually exclusive
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open window [start, end) for a list of length n.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		start = n - c.Tail
		if start < 0 {
			start = 0
		}
		return start, n
	}

	start = c.Offset
	if start > n {
		start = n
	}
	end = n
	if c.Limit > 0 && start+c.Limit < n {
		end = start + c.Limit
	}
	return start, end
}

// Apply returns the window of items selected by c. The result shares the
// backing array of items; callers that keep it must not append to it.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}
