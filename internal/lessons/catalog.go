// Package lessons holds the static lesson catalog.
package lessons

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is an immutable, ordered set of lessons.
type Catalog struct {
	lessons []Lesson
	byID    map[string]int
}

type catalogFile struct {
	Lessons []Lesson `yaml:"lessons"`
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Lessons) == 0 {
		return nil, fmt.Errorf("catalog has no lessons")
	}

	c := &Catalog{byID: make(map[string]int, len(f.Lessons))}
	for i, l := range f.Lessons {
		l.Content = strings.TrimSpace(l.Content)
		if err := validate(l); err != nil {
			return nil, fmt.Errorf("lesson %d (%q): %w", i, l.ID, err)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson id %q", l.ID)
		}
		c.byID[l.ID] = len(c.lessons)
		c.lessons = append(c.lessons, l)
	}
	return c, nil
}

func validate(l Lesson) error {
	switch {
	case l.ID == "":
		return fmt.Errorf("id is empty")
	case l.Title == "":
		return fmt.Errorf("title is empty")
	case l.Content == "":
		return fmt.Errorf("content is empty")
	case !l.Category.valid():
		return fmt.Errorf("unknown category %q", l.Category)
	case !l.Difficulty.Valid():
		return fmt.Errorf("unknown difficulty %q", l.Difficulty)
	case l.PointsReward <= 0:
		return fmt.Errorf("points reward must be positive")
	}
	return nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// invalid, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded lesson catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// All returns every lesson in catalog order.
func (c *Catalog) All() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// Get returns the lesson with the given id.
func (c *Catalog) Get(id string) (Lesson, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Lesson{}, false
	}
	return c.lessons[i], true
}

// ByCategory returns the lessons in category, in catalog order.
func (c *Catalog) ByCategory(cat Category) []Lesson {
	var out []Lesson
	for _, l := range c.lessons {
		if l.Category == cat {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of lessons.
func (c *Catalog) Len() int { return len(c.lessons) }
