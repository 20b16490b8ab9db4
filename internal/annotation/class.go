package annotation

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Class is a project label. Classes are read-only to the engine.
type Class struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Classes is a project's class list.
type Classes []Class

// Lookup returns the class with the given id.
func (cs Classes) Lookup(id int) (Class, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

// Resolve returns the class with the given id. A dangling id resolves to a
// synthetic class named class_<id> with a generated colour, so rendering and
// export never fail on a missing class. The second result reports whether the
// class was found. A known class with no usable colour gets the generated one.
func (cs Classes) Resolve(id int) (Class, bool) {
	c, ok := cs.Lookup(id)
	if !ok {
		return Class{ID: id, Name: fmt.Sprintf("class_%d", id), Color: FallbackColor(id)}, false
	}
	if _, err := ParseColor(c.Color); err != nil {
		c.Color = FallbackColor(id)
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("class_%d", id)
	}
	return c, true
}

// Names returns class names indexed by class id, from 0 to the largest id.
// Gaps are filled with synthetic names.
func (cs Classes) Names() []string {
	maxID := -1
	for _, c := range cs {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	names := make([]string, maxID+1)
	for i := range names {
		c, _ := cs.Resolve(i)
		names[i] = c.Name
	}
	return names
}

// FallbackColor returns a deterministic hex colour for a class id. Hues are
// spread by the golden angle in HCL space so neighbouring ids stay distinct.
func FallbackColor(id int) string {
	hue := math.Mod(float64(id)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	return colorful.Hcl(hue, 0.55, 0.65).Clamped().Hex()
}

// ParseColor parses a #rgb or #rrggbb colour string.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, fmt.Errorf("empty colour")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return c, nil
}
