package reading

import (
	"fmt"
	"strings"
)

// Category is a monitored resource type.
type Category string

const (
	Electricity Category = "electricity"
	Water       Category = "water"
	Food        Category = "food"
)

// Building is one of the monitored campus locations.
type Building string

const (
	HostelA   Building = "Hostel-A"
	Library   Building = "Library"
	Cafeteria Building = "Cafeteria"
	Labs      Building = "Labs"
)

// Categories lists every category in sweep order.
var Categories = []Category{Electricity, Water, Food}

// Buildings lists every building in sweep order.
var Buildings = []Building{HostelA, Library, Cafeteria, Labs}

// UnitFor returns the measurement unit of a category.
func UnitFor(c Category) string {
	switch c {
	case Electricity:
		return "kWh"
	case Water:
		return "L"
	case Food:
		return "kg"
	default:
		panic(fmt.Sprintf("reading: unknown category %q", string(c)))
	}
}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ParseBuilding reports whether s names a known building.
func ParseBuilding(s string) (Building, bool) {
	for _, b := range Buildings {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

func (b Building) isHostel() bool    { return strings.Contains(string(b), "Hostel") }
func (b Building) isCafeteria() bool { return strings.Contains(string(b), "Cafeteria") }

// Meta carries category-specific extras. Empty meta encodes as {}.
type Meta struct {
	MealsServed int `json:"mealsServed,omitempty"`
}

// Reading is one generated observation. Values are never mutated after creation.
type Reading struct {
	Building Building `json:"building"`
	Category Category `json:"category"`
	TS       int64    `json:"ts"`
	Time     string   `json:"time"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	Meta     Meta     `json:"meta"`
}

// Snapshot is the latest-value summary kept per (category, building).
type Snapshot struct {
	TS    int64   `json:"ts"`
	Time  string  `json:"time"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Snapshot derives the latest snapshot for r.
func (r Reading) Snapshot() Snapshot {
	return Snapshot{TS: r.TS, Time: r.Time, Value: r.Value, Unit: r.Unit}
}

// Entry is a reading stored in a pair's log together with its log id.
type Entry struct {
	ID string `json:"id"`
	Reading
}
