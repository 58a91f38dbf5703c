package category

import (
	"sort"
	"strings"
)

const (
	SourcePalette = "palette"
	SourceStored  = "stored"
)

// Category is a name a client can offer when entering an expense. Palette
// entries come from configuration; stored entries are free-form names that
// expenses already use.
type Category struct {
	Name   string
	Source string
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		Name:   c.Name,
		Source: c.Source,
	}
}

// Merge returns the palette in its configured order followed by stored names
// the palette lacks, sorted alphabetically. Names are compared ignoring case
// and surrounding whitespace; the first spelling seen wins.
func Merge(palette, stored []string) []*Category {
	seen := make(map[string]struct{}, len(palette)+len(stored))
	result := make([]*Category, 0, len(palette)+len(stored))

	for _, name := range palette {
		if name, ok := claim(seen, name); ok {
			result = append(result, &Category{Name: name, Source: SourcePalette})
		}
	}

	extras := make([]*Category, 0)
	for _, name := range stored {
		if name, ok := claim(seen, name); ok {
			extras = append(extras, &Category{Name: name, Source: SourceStored})
		}
	}
	sort.SliceStable(extras, func(i, j int) bool {
		a, b := strings.ToLower(extras[i].Name), strings.ToLower(extras[j].Name)
		if a != b {
			return a < b
		}
		return extras[i].Name < extras[j].Name
	})

	return append(result, extras...)
}

func claim(seen map[string]struct{}, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	key := strings.ToLower(name)
	if _, dup := seen[key]; dup {
		return "", false
	}
	seen[key] = struct{}{}
	return name, true
}
