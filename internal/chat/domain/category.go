// Package domain defines the chat module's core types: canonical part
// categories, price coercion, and estimate structures.
package domain

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is a part-type token. Downstream of Normalize it is either one
// of the canonical categories or a lowercased passthrough of an
// unrecognized label.
type Category string

// The canonical category set. Every category-bearing value entering the
// retriever or validator must normalize to one of these.
const (
	CategoryCase      Category = "case"
	CategoryCPU       Category = "cpu"
	CategoryVGA       Category = "vga"
	CategoryRAM       Category = "ram"
	CategorySSD       Category = "ssd"
	CategoryPower     Category = "power"
	CategoryMainboard Category = "mainboard"
	CategoryCooler    Category = "cooler"
	CategoryHDD       Category = "hdd"
)

//go:embed categories.yaml
var categoriesYAML []byte

type categoryTable struct {
	Categories      map[string][]string `yaml:"categories"`
	CategoryAliases map[string][]string `yaml:"category_aliases"`
	HDDDenylist     []string            `yaml:"hdd_denylist"`
}

var (
	canonicalOrder = []Category{
		CategoryCPU, CategoryMainboard, CategoryRAM, CategoryVGA,
		CategorySSD, CategoryHDD, CategoryPower, CategoryCooler, CategoryCase,
	}

	synonymToCanonical map[string]Category
	categoryAliases    map[Category][]string
	hddDenylist        []string
)

func init() {
	var table categoryTable
	if err := yaml.Unmarshal(categoriesYAML, &table); err != nil {
		panic("invalid embedded category table: " + err.Error())
	}

	synonymToCanonical = make(map[string]Category)
	for canonical, synonyms := range table.Categories {
		for _, synonym := range synonyms {
			synonymToCanonical[strings.ToLower(synonym)] = Category(canonical)
		}
	}

	categoryAliases = make(map[Category][]string, len(table.CategoryAliases))
	for category, aliases := range table.CategoryAliases {
		categoryAliases[Category(category)] = aliases
	}

	hddDenylist = table.HDDDenylist
}

// Categories returns the canonical category set in build display order.
func Categories() []Category {
	return append([]Category(nil), canonicalOrder...)
}

// Normalize maps a free-form category label to its canonical category.
// Unknown labels are returned lowercased and trimmed, unchanged otherwise;
// callers decide whether an unrecognized category is worth logging.
// Normalize is idempotent: canonical tokens map to themselves.
func Normalize(rawLabel string) Category {
	cleaned := strings.ToLower(strings.TrimSpace(rawLabel))
	if cleaned == "" {
		return ""
	}
	if canonical, ok := synonymToCanonical[cleaned]; ok {
		return canonical
	}
	return Category(cleaned)
}

// IsCanonical reports whether c belongs to the fixed canonical set.
func (c Category) IsCanonical() bool {
	for _, canonical := range canonicalOrder {
		if c == canonical {
			return true
		}
	}
	return false
}

// Matches reports whether a candidate's own category metadata labels the
// same part as c, honoring cross-aliases (vga and gpu are equivalent).
func (c Category) Matches(candidateCategory string) bool {
	other := strings.ToLower(strings.TrimSpace(candidateCategory))
	if other == string(c) {
		return true
	}
	for _, alias := range categoryAliases[c] {
		if other == alias {
			return true
		}
	}
	return false
}

// HDDDenied reports whether an hdd candidate name hits the NAS/enterprise/
// surveillance/external denylist.
func HDDDenied(name string) bool {
	lowered := strings.ToLower(name)
	for _, keyword := range hddDenylist {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
