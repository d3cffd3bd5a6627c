// Package geo holds the shared proximity and bearing primitives. Every
// "nearby X" computation in the server goes through these two functions so
// that distance and compass wording stay consistent across briefings.
package geo

import "math"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DirectionNearby is returned when the two positions coincide and no
// bearing exists.
const DirectionNearby = "nearby"

func Distance(a, b Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Direction returns the 8-point compass bearing from one position toward
// another. World coordinates follow the screen convention: +Y points south.
func Direction(from, to Position) string {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return DirectionNearby
	}
	// Flip dy so north is positive, then bucket into 45-degree sectors
	// centered on the cardinals and diagonals.
	deg := math.Atan2(-dy, dx) * 180 / math.Pi
	switch {
	case deg >= -22.5 && deg < 22.5:
		return "East"
	case deg >= 22.5 && deg < 67.5:
		return "Northeast"
	case deg >= 67.5 && deg < 112.5:
		return "North"
	case deg >= 112.5 && deg < 157.5:
		return "Northwest"
	case deg >= -67.5 && deg < -22.5:
		return "Southeast"
	case deg >= -112.5 && deg < -67.5:
		return "South"
	case deg >= -157.5 && deg < -112.5:
		return "Southwest"
	default:
		return "West"
	}
}
