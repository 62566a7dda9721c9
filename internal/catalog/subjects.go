package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"autopost/internal/services"
)

// LoadSubjects reads the subject catalog, a JSON array of names. Blank and
// duplicate names are dropped while preserving file order.
func LoadSubjects(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", "load", fmt.Sprintf("catalog file %s does not exist", path), ErrEmptyCatalog)
		}
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "load", "read catalog file", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "parse", fmt.Sprintf("catalog file %s must be a JSON array of strings", path), err)
	}
	return dedupe(raw), nil
}

// SaveSubjects writes subjects as an indented JSON array.
func SaveSubjects(path string, subjects []string) error {
	data, err := json.MarshalIndent(dedupe(subjects), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
