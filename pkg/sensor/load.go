package sensor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const maxFileSize = 1 << 20

// File is the on-disk format for sensor overrides.
type File struct {
	Sensors []Profile `json:"sensors"`
}

// LoadFile reads a JSON sensor file and merges it over the defaults.
// Entries replace defaults with the same name; new names are added.
func LoadFile(path string) (*Table, error) {
	cleanPath := filepath.Clean(path)

	fi, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("sensor file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cleanPath, err)
	}

	return Merge(DefaultProfiles, f.Sensors)
}

// Merge returns a table of base profiles with overrides applied by name.
func Merge(base []Profile, overrides []Profile) (*Table, error) {
	byName := map[string]int{}
	merged := make([]Profile, 0, len(base)+len(overrides))
	for _, p := range base {
		byName[normalize(p.Name)] = len(merged)
		merged = append(merged, p)
	}

	for _, p := range overrides {
		if idx, ok := byName[normalize(p.Name)]; ok {
			merged[idx] = p
			continue
		}
		byName[normalize(p.Name)] = len(merged)
		merged = append(merged, p)
	}

	t, err := NewTable(merged...)
	if err != nil {
		return nil, fmt.Errorf("invalid sensor table: %w", err)
	}
	return t, nil
}
