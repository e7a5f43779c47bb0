package textfilter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jwebster45206/barter-engine/pkg/item"
)

// Matcher reports whether an item passes a filter.
type Matcher func(it *item.Item) bool

// field selects which text of an item a term is matched against
type field int

const (
	fieldName field = iota
	fieldCategory
	fieldDescription
)

type term struct {
	field  field
	text   string
	negate bool
}

// prefixes maps the filter prefixes to item fields
var prefixes = map[string]field{
	"n:": fieldName,
	"c:": fieldCategory,
	"d:": fieldDescription,
}

// Parse compiles a filter string into a Matcher.
//
// A filter is a comma separated list of terms. A term matches the display
// name unless prefixed with "c:" (category) or "d:" (description). A leading
// "-" excludes items matching the term. An item passes when it matches any
// positive term (or there are none) and no negative term. Matching is
// case-insensitive. The empty filter matches everything.
func Parse(filter string) Matcher {
	folder := cases.Fold()
	var positive, negative []term

	for _, raw := range strings.Split(filter, ",") {
		raw = strings.TrimSpace(raw)
		t := term{field: fieldName}
		if strings.HasPrefix(raw, "-") {
			t.negate = true
			raw = strings.TrimSpace(raw[1:])
		}
		for prefix, f := range prefixes {
			if strings.HasPrefix(strings.ToLower(raw), prefix) {
				t.field = f
				raw = strings.TrimSpace(raw[len(prefix):])
				break
			}
		}
		if raw == "" {
			continue
		}
		t.text = folder.String(raw)
		if t.negate {
			negative = append(negative, t)
		} else {
			positive = append(positive, t)
		}
	}

	return func(it *item.Item) bool {
		if it == nil {
			return false
		}
		for _, t := range negative {
			if t.matches(folder, it) {
				return false
			}
		}
		if len(positive) == 0 {
			return true
		}
		for _, t := range positive {
			if t.matches(folder, it) {
				return true
			}
		}
		return false
	}
}

func (t term) matches(folder cases.Caser, it *item.Item) bool {
	var hay string
	switch t.field {
	case fieldCategory:
		hay = it.Category.Name
	case fieldDescription:
		hay = it.Description
	default:
		hay = it.DisplayName()
	}
	return strings.Contains(folder.String(hay), t.text)
}

// Indices returns the indices of items passing the filter, in order.
// An empty filter returns every index.
func Indices(items []*item.Item, filter string) []int {
	out := make([]int, 0, len(items))
	if strings.TrimSpace(filter) == "" {
		for i := range items {
			out = append(out, i)
		}
		return out
	}
	match := Parse(filter)
	for i, it := range items {
		if match(it) {
			out = append(out, i)
		}
	}
	return out
}
