package layout

import "math"

// Fit scales positions into a width x height viewport leaving padding on every
// side. It is a rendering step applied to Compute's output; the relative
// arrangement is preserved per axis. A degenerate axis (all nodes share a
// coordinate) is centered.
func Fit(positions map[string]Position, width, height, padding float64) map[string]Position {
	fitted := make(map[string]Position, len(positions))
	if len(positions) == 0 {
		return fitted
	}

	// Find bounds
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	for id, pos := range positions {
		fitted[id] = Position{
			X: scaleAxis(pos.X, minX, maxX, padding, targetWidth),
			Y: scaleAxis(pos.Y, minY, maxY, padding, targetHeight),
		}
	}
	return fitted
}

func scaleAxis(v, lo, hi, offset, span float64) float64 {
	if hi-lo < 0.01 {
		return offset + span/2
	}
	return offset + (v-lo)/(hi-lo)*span
}

// Distance returns the Euclidean distance between two positions
func Distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
