package sim

import (
	"github.com/tomz197/seaspot/internal/record"
	"github.com/tomz197/seaspot/internal/sea"
)

// IslandRecord converts a placed island into its stored form. angle is the disc angle it was shown at.
func IslandRecord(obj *sea.Object, angle float64) record.Island {
	isl := obj.Island
	circles := islandCircles(obj)

	rec := record.Island{
		ID:              obj.ID,
		Name:            isl.Name,
		X:               obj.X,
		Z:               obj.Z,
		Radius:          isl.Radius,
		EffectiveRadius: isl.EffectiveRadius,
		Converged:       isl.Converged,
		Iterations:      isl.Iterations,
		Angle:           angle,
		Members:         make([]record.Member, len(circles)),
	}
	for i, c := range circles {
		rec.Members[i] = record.Member{Prop: isl.Members[i].Prop.Name, X: c.X, Z: c.Z, Radius: c.Radius}
	}
	return rec
}

// PathRecord converts a boat's path query into its stored form.
func PathRecord(ev sea.PathEvent) record.Path {
	res := ev.Result
	return record.Path{
		BoatID:       ev.Boat.ID,
		StartTheta:   res.Start.Theta,
		StartRho:     res.Start.Rho,
		GoalTheta:    res.Goal.Theta,
		GoalRho:      res.Goal.Rho,
		Found:        res.Found,
		StartBlocked: res.StartBlocked,
		Cells:        len(res.Nodes),
		Expanded:     res.Expanded,
		Elapsed:      res.Elapsed,
	}
}
