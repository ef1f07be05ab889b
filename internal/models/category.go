package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Category is either one of the built-in categories or a user-defined custom one.
type Category struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Custom bool   `json:"custom"`
}

// Built-in categories.
var (
	CategoryFood          = Category{Name: "Food", Color: "#f97316"}
	CategoryGroceries     = Category{Name: "Groceries", Color: "#84cc16"}
	CategoryTransport     = Category{Name: "Transport", Color: "#0ea5e9"}
	CategoryShopping      = Category{Name: "Shopping", Color: "#ec4899"}
	CategoryBills         = Category{Name: "Bills", Color: "#eab308"}
	CategoryEntertainment = Category{Name: "Entertainment", Color: "#8b5cf6"}
	CategoryHealth        = Category{Name: "Health", Color: "#ef4444"}
	CategoryTravel        = Category{Name: "Travel", Color: "#14b8a6"}
	CategoryOther         = Category{Name: "Other", Color: "#6b7280"}

	// CategorySettlement tags personal transactions created from settled debts.
	CategorySettlement = Category{Name: "Settlement", Color: "#22c55e"}
)

var builtinCategories = []Category{
	CategoryFood, CategoryGroceries, CategoryTransport, CategoryShopping, CategoryBills,
	CategoryEntertainment, CategoryHealth, CategoryTravel, CategoryOther, CategorySettlement,
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// BuiltinCategories returns the built-in categories.
func BuiltinCategories() []Category {
	out := make([]Category, len(builtinCategories))
	copy(out, builtinCategories)
	return out
}

// ParseCategory resolves a built-in category by name (case-insensitive).
func ParseCategory(name string) (Category, error) {
	for _, c := range builtinCategories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q", name)
}

// NewCustomCategory validates a user-defined category.
func NewCustomCategory(name, color string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("custom category name is required")
	}
	if _, err := ParseCategory(name); err == nil {
		return Category{}, fmt.Errorf("category %q is built in", name)
	}
	if !colorPattern.MatchString(color) {
		return Category{}, fmt.Errorf("custom category color %q must be #rrggbb", color)
	}
	return Category{Name: name, Color: color, Custom: true}, nil
}

// ResolveCategory returns the built-in category called name, or a custom category with the
// given color when no built-in matches.
func ResolveCategory(name, color string) (Category, error) {
	if c, err := ParseCategory(name); err == nil {
		return c, nil
	}
	return NewCustomCategory(name, color)
}
