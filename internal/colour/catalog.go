package colour

import (
	"golang.org/x/image/colornames"
)

// NamedColour is one entry of a named-colour catalog.
type NamedColour struct {
	Name string `json:"name"`
	RGB  RGB    `json:"rgb"`
}

// Catalog returns the CSS3/SVG named colours in name order. Names sharing a
// value (aqua and cyan, the grey/gray spellings) collapse onto the first.
func Catalog() []NamedColour {
	seen := make(map[RGB]struct{}, len(colornames.Names))
	catalog := make([]NamedColour, 0, len(colornames.Names))
	for _, name := range colornames.Names {
		rgb := ToRGB(colornames.Map[name])
		if _, dup := seen[rgb]; dup {
			continue
		}
		seen[rgb] = struct{}{}
		catalog = append(catalog, NamedColour{Name: name, RGB: rgb})
	}
	return catalog
}
