// Package catalog serves marketplace data from a local YAML file. It backs
// development mode and any deployment without access to the upstream API.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"gopkg.in/yaml.v3"
)

type file struct {
	Projects []domain.Project `yaml:"projects"`
}

type Catalog struct {
	projects []domain.Project
	byKey    map[string]int
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]int, len(f.Projects))}
	for _, p := range f.Projects {
		if p.Key == "" {
			return nil, fmt.Errorf("parse catalog: project %q has no key", p.Name)
		}
		if _, dup := c.byKey[p.Key]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate project key %q", p.Key)
		}
		p.Normalize()
		c.byKey[p.Key] = len(c.projects)
		c.projects = append(c.projects, p)
	}
	return c, nil
}

func (c *Catalog) Countries(_ context.Context) ([]string, error) {
	return c.distinct(func(p domain.Project) []string { return []string{p.Country} }), nil
}

func (c *Catalog) Categories(_ context.Context) ([]string, error) {
	return c.distinct(func(p domain.Project) []string {
		out := make([]string, 0, len(p.Methodologies))
		for _, m := range p.Methodologies {
			out = append(out, m.Category)
		}
		return out
	}), nil
}

// Search matches country and category exactly (case-insensitive) and name as
// a substring.
func (c *Catalog) Search(_ context.Context, f domain.SearchFilter) (*domain.SearchResult, error) {
	items := make([]domain.Project, 0)
	for _, p := range c.projects {
		if f.Country != "" && !strings.EqualFold(p.Country, f.Country) {
			continue
		}
		if f.Methodology != "" && !hasCategory(p, f.Methodology) {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
			continue
		}
		items = append(items, p)
	}
	return &domain.SearchResult{Items: items, ItemsCount: len(items)}, nil
}

func (c *Catalog) Project(_ context.Context, id string) (*domain.Project, error) {
	i, ok := c.byKey[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	p := c.projects[i]
	p.Prices = append([]domain.Pool(nil), p.Prices...)
	return &p, nil
}

func (c *Catalog) distinct(values func(domain.Project) []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range c.projects {
		for _, v := range values(p) {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func hasCategory(p domain.Project, category string) bool {
	for _, m := range p.Methodologies {
		if strings.EqualFold(m.Category, category) {
			return true
		}
	}
	return false
}
