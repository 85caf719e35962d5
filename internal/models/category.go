package models

import "fmt"

// Category identifies one of the independently toggleable flags on a Video.
type Category int

const (
	// CategoryLiked is the default category for sync operations that do
	// not name one explicitly.
	CategoryLiked Category = iota
	CategorySaved
	CategoryHistory
)

func (c Category) String() string {
	switch c {
	case CategoryLiked:
		return "liked"
	case CategorySaved:
		return "saved"
	case CategoryHistory:
		return "history"
	default:
		return ""
	}
}

// ParseCategory maps a category label to its Category value.
// The empty string maps to the default, CategoryLiked.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "liked":
		return CategoryLiked, nil
	case "saved", "watch_later":
		return CategorySaved, nil
	case "history":
		return CategoryHistory, nil
	default:
		return CategoryLiked, fmt.Errorf("unknown category: %q", s)
	}
}
