package reading

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// profile holds the generation heuristics of one category.
type profile struct {
	spread int32
	places int32
	base   func(Building) float64
}

// Spreads are stored as hundredths so the table stays exact.
var profiles = map[Category]profile{
	Electricity: {
		spread: 30,
		places: 2,
		base: func(b Building) float64 {
			switch {
			case b.isHostel():
				return 120
			case b.isCafeteria():
				return 200
			default:
				return 80
			}
		},
	},
	Water: {
		spread: 25,
		places: 0,
		base: func(b Building) float64 {
			switch {
			case b.isHostel():
				return 2500
			case b.isCafeteria():
				return 4000
			default:
				return 600
			}
		},
	},
	Food: {
		spread: 80,
		places: 2,
		base: func(b Building) float64 {
			switch {
			case b.isCafeteria():
				return 10
			case b.isHostel():
				return 2
			default:
				return 0.5
			}
		},
	},
}

// Base returns the nominal magnitude for a category at a building.
func Base(c Category, b Building) float64 {
	return mustProfile(c).base(b)
}

// Spread returns the relative perturbation width of a category.
func Spread(c Category) float64 {
	return float64(mustProfile(c).spread) / 100
}

func mustProfile(c Category) profile {
	p, ok := profiles[c]
	if !ok {
		panic(fmt.Sprintf("reading: unknown category %q", string(c)))
	}
	return p
}

// FormatTime renders ts (epoch milliseconds) as zero-padded HH:MM in loc.
func FormatTime(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format("15:04")
}

// Generator produces synthetic readings. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	loc *time.Location
}

// NewGenerator builds a generator drawing from src and rendering times in loc.
// A nil src seeds from the runtime; a nil loc means time.Local.
func NewGenerator(src rand.Source, loc *time.Location) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if loc == nil {
		loc = time.Local
	}
	return &Generator{rng: rand.New(src), loc: loc}
}

// Generate builds a reading for category at building stamped with ts.
// It panics on an unknown category.
func (g *Generator) Generate(c Category, b Building, ts int64) Reading {
	p := mustProfile(c)
	base := p.base(b)
	spread := float64(p.spread) / 100

	g.mu.Lock()
	jitter := g.rng.Float64() - 0.5
	var meta Meta
	if c == Food && b.isCafeteria() {
		meta.MealsServed = int(math.Round(100 + g.rng.Float64()*200))
	}
	g.mu.Unlock()

	raw := base + jitter*base*spread
	// Floor at zero; current spreads keep raw >= base*(1-spread/2) > 0.
	raw = math.Max(raw, 0)
	value := decimal.NewFromFloat(raw).Round(p.places).InexactFloat64()

	return Reading{
		Building: b,
		Category: c,
		TS:       ts,
		Time:     FormatTime(ts, g.loc),
		Value:    value,
		Unit:     UnitFor(c),
		Meta:     meta,
	}
}
