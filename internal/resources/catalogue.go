// Package resources loads the built-in directory of mental-health resources
// and external tools.
package resources

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"velym/backend/internal/model"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Catalogue is the seed data for the resource directory and the tools page.
type Catalogue struct {
	Resources []model.Resource  `yaml:"resources"`
	Tools     []model.ToolGroup `yaml:"tools"`
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// Parse reads a catalogue document and checks every resource category.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("could not parse resource catalogue: %w", err)
	}
	seen := make(map[string]bool, len(c.Resources))
	for _, r := range c.Resources {
		if r.ID == "" || r.Title == "" {
			return nil, fmt.Errorf("resource catalogue entry without id or title")
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate resource id %q", r.ID)
		}
		seen[r.ID] = true
		if !ValidCategory(r.Category) {
			return nil, fmt.Errorf("resource %q has unknown category %q", r.ID, r.Category)
		}
	}
	return &c, nil
}

// ValidCategory reports whether c is a known resource category.
func ValidCategory(c string) bool {
	switch c {
	case model.CategoryArticle, model.CategoryExercise, model.CategoryVideo:
		return true
	}
	return false
}

// Search keeps the resources whose title, description or content contains
// query, case-insensitively. An empty query keeps everything.
func Search(list []model.Resource, query string) []model.Resource {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]model.Resource, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Description), q) ||
			strings.Contains(strings.ToLower(r.Content), q) {
			out = append(out, r)
		}
	}
	return out
}
