package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s used for all name comparisons.
// A Caser keeps state, so every call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Catalog is the set of emoticon names known for a chat log. It is built once
// and only read afterwards, so it can be shared between goroutines.
type Catalog struct {
	names map[string]struct{}
}

// NewCatalog builds a catalog from names, ignoring blanks.
func NewCatalog(names []string) *Catalog {
	c := &Catalog{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		c.names[fold(n)] = struct{}{}
	}
	return c
}

// Contains reports whether word is an emoticon name, ignoring case.
func (c *Catalog) Contains(word string) bool {
	if c == nil || len(c.names) == 0 {
		return false
	}
	_, ok := c.names[fold(word)]
	return ok
}

// Len returns the number of distinct names.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// UserColors maps user names to their display colors. Like Catalog it is
// read-only after construction.
type UserColors struct {
	colors map[string]string
}

// NewUserColors builds the table from name -> "#rrggbb" pairs.
func NewUserColors(colors map[string]string) *UserColors {
	u := &UserColors{colors: make(map[string]string, len(colors))}
	for name, color := range colors {
		name = strings.TrimSpace(name)
		if name == "" || color == "" {
			continue
		}
		u.colors[fold(name)] = color
	}
	return u
}

// Lookup returns the color registered for name, ignoring case.
func (u *UserColors) Lookup(name string) (string, bool) {
	if u == nil || len(u.colors) == 0 {
		return "", false
	}
	c, ok := u.colors[fold(name)]
	return c, ok
}

// Len returns the number of users in the table.
func (u *UserColors) Len() int {
	if u == nil {
		return 0
	}
	return len(u.colors)
}
