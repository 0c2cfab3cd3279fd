package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the parameters of a sea simulation.
type Config struct {
	Sea         SeaConfig         `toml:"sea"`
	Spawner     SpawnerConfig     `toml:"spawner"`
	Props       []PropConfig      `toml:"props"`
	Islands     []IslandConfig    `toml:"islands"`
	Boats       BoatConfig        `toml:"boats"`
	Pathfinding PathfindingConfig `toml:"pathfinding"`
	Packing     PackingConfig     `toml:"packing"`
}

// Range is a closed interval.
type Range struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// SeaConfig describes the rotating sea disc.
type SeaConfig struct {
	RotationSpeed float64 `toml:"rotation_speed"` // unit: rad/s
	Seed          int64   `toml:"seed"`
	Prewarm       bool    `toml:"prewarm"` // populate the sea before the first tick
}

// SpawnerConfig places the spawn line and sets spawn rates.
// The spawn line starts at (SpawnX, SpawnZ) in world space and runs Width units along +X.
type SpawnerConfig struct {
	SpawnX                 float64 `toml:"spawn_x"`
	SpawnZ                 float64 `toml:"spawn_z"`
	Width                  float64 `toml:"width"`
	SpawnProbability       float64 `toml:"spawn_probability"`        // per tick
	IslandSpawnProbability float64 `toml:"island_spawn_probability"` // per tick
	MaxIslands             int     `toml:"max_islands"`
	SpawnOnce              bool    `toml:"spawn_once"` // fill the sea once, then freeze it
}

// PropConfig is a single sea object prefab.
// A scale range with Max == 0 leaves that axis at 1.
type PropConfig struct {
	Name         string  `toml:"name"`
	Radius       float64 `toml:"radius"`
	CanAttachCue bool    `toml:"can_attach_cue"`
	ScaleX       Range   `toml:"scale_x"`
	ScaleZ       Range   `toml:"scale_z"`
	LinkXZ       bool    `toml:"link_xz"` // Z scale copies X
}

// IslandConfig is a cluster of props laid out with the packing solver.
type IslandConfig struct {
	Name            string         `toml:"name"`
	Radius          Range          `toml:"radius"`
	ExclusionRadius float64        `toml:"exclusion_radius"`
	Members         []MemberConfig `toml:"members"`
}

// MemberConfig is a weighted entry of an island's prop table.
// The last entry takes whatever probability mass is left.
type MemberConfig struct {
	Prop        string  `toml:"prop"`
	Probability float64 `toml:"probability"`
}

// BoatConfig controls boat spawning and path following.
type BoatConfig struct {
	SpawnProbability float64 `toml:"spawn_probability"` // per tick
	MaxBoats         int     `toml:"max_boats"`         // 0 means unlimited
	Radius           float64 `toml:"radius"`
	Speed            float64 `toml:"speed"`           // unit: world units/s
	ReachThreshold   float64 `toml:"reach_threshold"` // unit: world units
	Lifetime         float64 `toml:"lifetime"`        // unit: s, ignored while following paths
	PathRetry        float64 `toml:"path_retry"`      // unit: s
	FollowPaths      bool    `toml:"follow_paths"`
}

// PathfindingConfig controls the occupancy grid.
type PathfindingConfig struct {
	GridRefreshTicks int `toml:"grid_refresh_ticks"` // refill interval when the sea keeps spawning
}

// PackingConfig tunes island layout.
type PackingConfig struct {
	MaxIterations int     `toml:"max_iterations"`
	Attenuation   float64 `toml:"attenuation"` // initial member spread inside the unit disc
}

// Default returns the default parameters.
func Default() *Config {
	return &Config{
		Sea: SeaConfig{
			RotationSpeed: 0.02,
			Seed:          1,
			Prewarm:       true,
		},
		Spawner: SpawnerConfig{
			SpawnX:                 20,
			SpawnZ:                 0,
			Width:                  360,
			SpawnProbability:       0.05,
			IslandSpawnProbability: 0.01,
			MaxIslands:             4,
		},
		Props: []PropConfig{
			{Name: "buoy", Radius: 1.5, CanAttachCue: true, ScaleX: Range{0.8, 1.5}, LinkXZ: true},
			{Name: "rock", Radius: 4, ScaleX: Range{1, 2}, ScaleZ: Range{1, 2}},
			{Name: "reef", Radius: 6, ScaleX: Range{1, 1.5}, ScaleZ: Range{1, 1.5}},
			{Name: "lighthouse", Radius: 3, CanAttachCue: true},
		},
		Islands: []IslandConfig{
			{
				Name:            "archipelago",
				Radius:          Range{30, 70},
				ExclusionRadius: 5,
				Members: []MemberConfig{
					{Prop: "rock", Probability: 0.6},
					{Prop: "reef", Probability: 0.3},
					{Prop: "lighthouse", Probability: 0.1},
				},
			},
		},
		Boats: BoatConfig{
			SpawnProbability: 0.01,
			MaxBoats:         10,
			Radius:           3.5,
			Speed:            20,
			ReachThreshold:   1,
			Lifetime:         10,
			PathRetry:        0.25,
			FollowPaths:      true,
		},
		Pathfinding: PathfindingConfig{
			GridRefreshTicks: 30,
		},
		Packing: PackingConfig{
			MaxIterations: 4,
			Attenuation:   0.8,
		},
	}
}

// Load parses the TOML file at path over the default parameters.
// Prop and island tables given in the file replace the default tables entirely.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	conf := Default()
	props, islands := conf.Props, conf.Islands
	conf.Props, conf.Islands = nil, nil

	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if !md.IsDefined("props") {
		conf.Props = props
	}
	if !md.IsDefined("islands") {
		conf.Islands = islands
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return conf, nil
}

// Prop returns the prop named name.
func (c *Config) Prop(name string) (PropConfig, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p, true
		}
	}
	return PropConfig{}, false
}

// Validate reports every impossible value.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	probability := func(p float64) bool { return p >= 0 && p <= 1 }

	check(c.Spawner.Width >= 0, "spawner.width must not be negative")
	check(probability(c.Spawner.SpawnProbability), "spawner.spawn_probability must be in [0, 1]")
	check(probability(c.Spawner.IslandSpawnProbability), "spawner.island_spawn_probability must be in [0, 1]")
	check(c.Spawner.MaxIslands >= 0, "spawner.max_islands must not be negative")
	check(c.Spawner.SpawnProbability == 0 || len(c.Props) > 0, "props must not be empty when spawner.spawn_probability > 0")

	names := make(map[string]bool, len(c.Props))
	for i, p := range c.Props {
		check(p.Name != "", "props[%d]: name is empty", i)
		check(!names[p.Name], "props[%d]: duplicate name %q", i, p.Name)
		check(p.Radius > 0, "props[%d]: radius must be positive", i)
		check(validScale(p.ScaleX), "props[%d]: invalid scale_x", i)
		check(validScale(p.ScaleZ), "props[%d]: invalid scale_z", i)
		names[p.Name] = true
	}

	for i, isl := range c.Islands {
		check(isl.Radius.Min > 0 && isl.Radius.Max >= isl.Radius.Min, "islands[%d]: invalid radius range", i)
		check(isl.ExclusionRadius > 0, "islands[%d]: exclusion_radius must be positive", i)
		check(len(isl.Members) > 0, "islands[%d]: members must not be empty", i)
		for j, m := range isl.Members {
			check(names[m.Prop], "islands[%d].members[%d]: unknown prop %q", i, j, m.Prop)
			check(probability(m.Probability), "islands[%d].members[%d]: probability must be in [0, 1]", i, j)
		}
	}

	check(probability(c.Boats.SpawnProbability), "boats.spawn_probability must be in [0, 1]")
	check(c.Boats.MaxBoats >= 0, "boats.max_boats must not be negative")
	check(c.Boats.Radius > 0, "boats.radius must be positive")
	check(c.Boats.Speed > 0, "boats.speed must be positive")
	check(c.Boats.ReachThreshold > 0, "boats.reach_threshold must be positive")
	check(c.Boats.PathRetry > 0, "boats.path_retry must be positive")

	check(c.Pathfinding.GridRefreshTicks > 0, "pathfinding.grid_refresh_ticks must be positive")
	check(c.Packing.MaxIterations >= 0, "packing.max_iterations must not be negative")
	check(c.Packing.Attenuation > 0 && c.Packing.Attenuation <= 1, "packing.attenuation must be in (0, 1]")

	return errors.Join(errs...)
}

func validScale(r Range) bool {
	if r.Max == 0 && r.Min == 0 {
		return true
	}
	return r.Min > 0 && r.Max >= r.Min
}
