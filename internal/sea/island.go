package sea

import (
	"math"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/physics"
	"github.com/tomz197/seaspot/internal/random"
)

// Member is a prop placed relative to its island's centre.
type Member struct {
	Prop *Prop
	X, Z float64 // Offset from the island centre
}

// Island is a cluster of props laid out with the circle packing solver.
type Island struct {
	Name            string
	Radius          float64 // Drawn radius the members are spread over
	EffectiveRadius float64 // Enclosing radius after layout
	Members         []Member

	// Outcome of the last layout.
	Converged  bool
	Iterations int
}

// NewIsland draws a radius from the prefab and fills the island with members.
// The member count grows with the squared ratio of radius to exclusion radius.
func (c *Catalog) NewIsland(i int, rng random.Source) *Island {
	cfg := c.islands[i]
	radius := rng.Range(cfg.Radius.Min, cfg.Radius.Max)

	div := radius / cfg.ExclusionRadius
	n := int(math.Floor(div * div * 0.5))

	isl := &Island{
		Name:            cfg.Name,
		Radius:          radius,
		EffectiveRadius: radius,
		Members:         make([]Member, n),
	}
	for j := range isl.Members {
		isl.Members[j].Prop = c.NewProp(c.pickMember(cfg, rng))
	}
	return isl
}

// RandomizeIsland redraws the scale of every member.
func (c *Catalog) RandomizeIsland(isl *Island, rng random.Source) {
	for _, m := range isl.Members {
		c.RandomizeProp(m.Prop, rng)
	}
}

// Layout scatters the members inside the island and separates them with the packing solver.
// Members start inside the unit disc shrunk by cfg.Attenuation: x is uniform, z is uniform
// within the chord at x, which crowds members toward the left and right rims. The solver runs at
// most cfg.MaxIterations times; an unconverged layout is kept as is.
func (isl *Island) Layout(cfg config.PackingConfig, rng random.Source) {
	packer := physics.NewPacker(rng)

	for _, m := range isl.Members {
		x := rng.Float64()*2 - 1
		z := (rng.Float64()*2 - 1) * math.Sqrt(1-x*x)
		packer.AddCircle(x*cfg.Attenuation, z*cfg.Attenuation, m.Prop.EffectiveRadius()/isl.Radius)
	}

	isl.Converged, isl.Iterations = packer.Solve(cfg.MaxIterations)

	isl.EffectiveRadius = 0
	for i := range isl.Members {
		x, z := packer.GetCirclePosition(i)
		m := &isl.Members[i]
		m.X = x * isl.Radius
		m.Z = z * isl.Radius

		if er := math.Hypot(x, z)*isl.Radius + m.Prop.EffectiveRadius(); er > isl.EffectiveRadius {
			isl.EffectiveRadius = er
		}
	}
}
