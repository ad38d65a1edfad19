// Package catalog indexes the neighborhood table for normalized lookups.
package catalog

import (
	"sort"
	"strings"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

type Catalog struct {
	items []domain.Neighborhood
	byKey map[string]int
}

// New indexes items by folded name. Later duplicates of a name are dropped.
func New(items []domain.Neighborhood) *Catalog {
	c := &Catalog{byKey: make(map[string]int, len(items))}
	for _, n := range items {
		k := textnorm.Key(n.Name)
		if k == "" {
			continue
		}
		if _, dup := c.byKey[k]; dup {
			continue
		}
		c.byKey[k] = len(c.items)
		c.items = append(c.items, n)
	}
	return c
}

// Lookup finds a neighborhood ignoring case, accents, extra whitespace and mojibake.
func (c *Catalog) Lookup(name string) (domain.Neighborhood, bool) {
	if c == nil {
		return domain.Neighborhood{}, false
	}
	i, ok := c.byKey[textnorm.Key(name)]
	if !ok {
		return domain.Neighborhood{}, false
	}
	return c.items[i], true
}

// All returns the records in load order.
func (c *Catalog) All() []domain.Neighborhood {
	if c == nil {
		return nil
	}
	out := make([]domain.Neighborhood, len(c.items))
	copy(out, c.items)
	return out
}

// Names returns the sorted neighborhood names.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.items))
	for _, n := range c.items {
		out = append(out, strings.TrimSpace(n.Name))
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}
