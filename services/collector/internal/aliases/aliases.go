// Package aliases maps raw device addresses to friendly sensor names.
package aliases

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout:
//
//	sensors:
//	  "A4:C1:38:00:11:22": kitchen
//	ignore:
//	  - "A4:C1:38:99:99:99"
type File struct {
	Sensors map[string]string `yaml:"sensors"`
	Ignore  []string          `yaml:"ignore"`
}

// Table resolves names. The zero value passes addresses through unchanged.
type Table struct {
	names  map[string]string
	ignore map[string]struct{}
}

// Load reads an alias file. An empty path yields an empty table.
func Load(path string) (Table, error) {
	if path == "" {
		return Table{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read aliases file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("failed to parse aliases file: %w", err)
	}

	t := Table{
		names:  make(map[string]string, len(f.Sensors)),
		ignore: make(map[string]struct{}, len(f.Ignore)),
	}
	for addr, name := range f.Sensors {
		name = strings.TrimSpace(name)
		if name == "" {
			return Table{}, fmt.Errorf("alias for %s is empty", addr)
		}
		t.names[normalize(addr)] = name
	}
	for _, addr := range f.Ignore {
		t.ignore[normalize(addr)] = struct{}{}
	}
	return t, nil
}

// Resolve returns the sensor name for addr and whether it should be kept.
func (t Table) Resolve(addr string) (string, bool) {
	key := normalize(addr)
	if _, skip := t.ignore[key]; skip {
		return "", false
	}
	if name, ok := t.names[key]; ok {
		return name, true
	}
	return addr, true
}

// Len returns the number of configured aliases.
func (t Table) Len() int { return len(t.names) }

func normalize(addr string) string {
	return strings.ToUpper(strings.TrimSpace(addr))
}
