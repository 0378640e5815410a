// Package registry loads the constellation seeds file: the ordered list
// of sources the sweep visits. The registry only names sources; it owns
// nothing about what they publish.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one external producer. URL, when set, overrides the hub URL
// template for that source.
type Source struct {
	Repo   string `yaml:"repo"`
	Module string `yaml:"module"`
	URL    string `yaml:"url"`
}

type seedsFile struct {
	Constellation []Source `yaml:"constellation"`
}

// Load reads the seeds file. Any failure here is fatal to the run: a
// sweep without a registry must not touch the persisted documents.
// Entries without a repo name are skipped.
func Load(path string) ([]Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var f seedsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	sources := make([]Source, 0, len(f.Constellation))
	for _, s := range f.Constellation {
		if s.Repo == "" {
			continue
		}
		sources = append(sources, s)
	}
	return sources, nil
}
