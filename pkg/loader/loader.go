// Package loader reads candidate lists from JSON, NDJSON, YAML or TOML input.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvpick/pkg/records"
)

// RecordsKey holds the record list in formats whose root must be a table (TOML).
const RecordsKey = "records"

var (
	tomlSectionPattern  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// LoadData parses input, auto-detecting the format:
//   - multi-document YAML (separated by ---)
//   - newline-delimited JSON, one document per line
//   - TOML
//   - a single JSON document
//   - a single YAML document
//
// Every parsed document becomes one element of the result.
func LoadData(input string) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return loadMultiDocYAML(input)
	}
	if lines := strings.Split(input, "\n"); len(lines) > 1 && isLikelyNDJSON(lines) {
		return loadNDJSON(input)
	}
	if isLikelyTOML(input) {
		return loadTOML(input)
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		if docs, err := loadJSON(input); err == nil {
			return docs, nil
		}
	}
	return loadYAML(input)
}

// LoadFile parses the file at path. A known extension selects the parser;
// otherwise the content is sniffed like LoadData.
func LoadFile(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	input := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(strings.TrimSpace(input))
	case ".ndjson", ".jsonl":
		return loadNDJSON(input)
	case ".yaml", ".yml":
		if strings.Contains(input, "\n---") || strings.HasPrefix(strings.TrimSpace(input), "---") {
			return loadMultiDocYAML(input)
		}
		return loadYAML(input)
	case ".toml":
		return loadTOML(input)
	default:
		return LoadData(input)
	}
}

// LoadRecords reads a candidate list from path.
func LoadRecords(path string) ([]records.Record, error) {
	docs, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return recordsFromDocs(docs)
}

// ReadRecords reads a candidate list from r.
func ReadRecords(r io.Reader) ([]records.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return ParseRecords(string(data))
}

// ParseRecords parses a candidate list from input. A single document must be
// a list of objects, or an object holding that list under RecordsKey. Several
// documents (multi-document YAML, NDJSON) are one record each.
func ParseRecords(input string) ([]records.Record, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}
	return recordsFromDocs(docs)
}

func recordsFromDocs(docs []any) ([]records.Record, error) {
	if len(docs) != 1 {
		return records.FromAny(docs)
	}
	root := docs[0]
	if m, ok := root.(map[string]any); ok {
		if list, ok := m[RecordsKey]; ok {
			root = list
		}
	}
	return records.FromAny(root)
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

func loadYAML(input string) ([]any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{data}, nil
}

func loadMultiDocYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses one JSON document per non-blank line.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", i+1, err)
		}
		results = append(results, doc)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON requires several non-empty lines, most of them starting
// with '{' or '['. YAML lists with bare "- name" items do not qualify.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmpty := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	if nonEmpty < 2 || jsonCount <= nonEmpty/2 {
		return false
	}
	// a pretty-printed JSON array also starts lines with '{'; only accept
	// when every such line is a complete document
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !json.Valid([]byte(trimmed)) {
			return false
		}
	}
	return true
}

// isLikelyTOML looks for [section] headers or a majority of key = value lines.
func isLikelyTOML(input string) bool {
	sections := 0
	keyValues := 0
	nonEmpty := 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSectionPattern.MatchString(line) {
			sections++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}

func loadTOML(input string) ([]any, error) {
	var data any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}
