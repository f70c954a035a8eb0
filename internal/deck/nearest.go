package deck

// FindShapeByPosition returns the shape whose center-origin is nearest
// to (x, y) within the tolerance radius, or nil when none qualifies.
//
// Ties are broken by slide order: only a strictly smaller distance
// displaces the current best, so the first shape encountered wins.
// This replaces name-based lookup, which duplication defeats.
func FindShapeByPosition(shapes []ShapePosition, x, y, tolerance float64) *ShapePosition {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	best := -1
	bestDist := 0.0
	for i := range shapes {
		d := shapes[i].distanceTo(x, y)
		if d > tolerance {
			continue
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return nil
	}
	return &shapes[best]
}
