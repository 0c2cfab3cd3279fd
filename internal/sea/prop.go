package sea

import (
	"fmt"
	"math"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/random"
)

// Prop is a single decorative sea object.
type Prop struct {
	Name         string
	BaseRadius   float64
	ScaleX       float64
	ScaleZ       float64
	CanAttachCue bool

	prefab int // Catalog index, used to shelve the prop
}

// EffectiveRadius is the base radius scaled by the larger horizontal scale.
func (p *Prop) EffectiveRadius() float64 {
	return p.BaseRadius * math.Max(p.ScaleX, p.ScaleZ)
}

// Catalog resolves the configured prefabs.
type Catalog struct {
	props   []config.PropConfig
	islands []config.IslandConfig
	byName  map[string]int
}

// NewCatalog indexes the prop and island tables of conf.
func NewCatalog(conf *config.Config) (*Catalog, error) {
	c := &Catalog{
		props:   conf.Props,
		islands: conf.Islands,
		byName:  make(map[string]int, len(conf.Props)),
	}
	for i, p := range conf.Props {
		c.byName[p.Name] = i
	}
	for _, isl := range conf.Islands {
		for _, m := range isl.Members {
			if _, ok := c.byName[m.Prop]; !ok {
				return nil, fmt.Errorf("island %q: unknown prop %q", isl.Name, m.Prop)
			}
		}
	}
	return c, nil
}

// PropCount returns the number of prop prefabs.
func (c *Catalog) PropCount() int {
	return len(c.props)
}

// IslandCount returns the number of island prefabs.
func (c *Catalog) IslandCount() int {
	return len(c.islands)
}

// NewProp instantiates prefab i with unit scale.
func (c *Catalog) NewProp(i int) *Prop {
	cfg := c.props[i]
	return &Prop{
		Name:         cfg.Name,
		BaseRadius:   cfg.Radius,
		ScaleX:       1,
		ScaleZ:       1,
		CanAttachCue: cfg.CanAttachCue,
		prefab:       i,
	}
}

// RandomizeProp draws new scales for p from its prefab's ranges.
func (c *Catalog) RandomizeProp(p *Prop, rng random.Source) {
	cfg := c.props[p.prefab]
	p.ScaleX = randomScale(cfg.ScaleX, rng)
	p.ScaleZ = randomScale(cfg.ScaleZ, rng)
	if cfg.LinkXZ {
		p.ScaleZ = p.ScaleX
	}
}

// randomScale draws log-uniformly from r, or returns 1 for an unset range.
func randomScale(r config.Range, rng random.Source) float64 {
	if r.Max <= 0 {
		return 1
	}
	return math.Exp(rng.Range(math.Log(r.Min), math.Log(r.Max)))
}

// pickMember draws a prop index from an island's weighted member table.
// Probabilities are subtracted in order; the last entry takes the remainder.
func (c *Catalog) pickMember(isl config.IslandConfig, rng random.Source) int {
	num := rng.Float64()
	for _, m := range isl.Members[:len(isl.Members)-1] {
		num -= m.Probability
		if num < 0 {
			return c.byName[m.Prop]
		}
	}
	return c.byName[isl.Members[len(isl.Members)-1].Prop]
}
