package deck

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultTolerance is the matching radius in inches. A shape
	// further than this from every expectation counts as missing.
	DefaultTolerance = 0.15

	// MatchEpsilon separates "matched" from "drifted": within
	// tolerance but beyond this offset, the shape has moved.
	MatchEpsilon = 0.05
)

// Report statuses. Degraded never blocks generation, it only downgrades
// the run's final status.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// RoleMatch ties an expected role to the live shape claimed for it.
type RoleMatch struct {
	Role     string         `json:"role"`
	Expected Rect           `json:"expected"`
	Actual   *ShapePosition `json:"actual,omitempty"`
	Offset   float64        `json:"offset,omitempty"`
}

// Report is the outcome of verifying a template against a position
// map. It is a pure value: building one has no side effects and
// nothing here is persisted.
type Report struct {
	Matched []RoleMatch     `json:"matched"`
	Drifted []RoleMatch     `json:"drifted"`
	Missing []RoleMatch     `json:"missing"`
	New     []ShapePosition `json:"new"`

	MatchRatio float64 `json:"match_ratio"`
	Status     string  `json:"status"`
}

// FullyMatched reports whether every role matched within epsilon.
func (r *Report) FullyMatched() bool {
	return len(r.Drifted) == 0 && len(r.Missing) == 0
}

// Summary renders a short human-readable digest.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "matched %d, drifted %d, missing %d, new %d (ratio %.0f%%, %s)",
		len(r.Matched), len(r.Drifted), len(r.Missing), len(r.New),
		r.MatchRatio*100, r.Status)
	for _, m := range r.Drifted {
		fmt.Fprintf(&b, "\n  drifted %s: expected (%.2f, %.2f), found (%.2f, %.2f), offset %.2f",
			m.Role, m.Expected.X, m.Expected.Y, m.Actual.X, m.Actual.Y, m.Offset)
	}
	for _, m := range r.Missing {
		fmt.Fprintf(&b, "\n  missing %s: expected (%.2f, %.2f)", m.Role, m.Expected.X, m.Expected.Y)
	}
	return b.String()
}

// MismatchError is the typed failure for callers that gate on
// verification, carrying the report for programmatic inspection.
type MismatchError struct {
	Report *Report
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("template mismatch: %d drifted, %d missing",
		len(e.Report.Drifted), len(e.Report.Missing))
}

// Mismatch returns a MismatchError unless the report fully matched.
func (r *Report) Mismatch() error {
	if r.FullyMatched() {
		return nil
	}
	return &MismatchError{Report: r}
}

// Verify classifies every role in the position map against the live
// shapes. Roles are processed in sorted order and each live shape can
// be claimed by at most one role, which keeps the outcome deterministic
// for a given template and map.
func Verify(shapes []ShapePosition, pm PositionMap, tolerance float64) *Report {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	roles := make([]string, 0, len(pm))
	for role := range pm {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	claimed := make([]bool, len(shapes))
	report := &Report{
		Matched: []RoleMatch{},
		Drifted: []RoleMatch{},
		Missing: []RoleMatch{},
		New:     []ShapePosition{},
	}

	for _, role := range roles {
		expected := pm[role]
		best := -1
		bestDist := tolerance
		for i := range shapes {
			if claimed[i] {
				continue
			}
			// Strict less-than: the first shape in slide order
			// wins exact ties.
			if d := shapes[i].distanceTo(expected.X, expected.Y); d <= tolerance && (best < 0 || d < bestDist) {
				best = i
				bestDist = d
			}
		}

		if best < 0 {
			report.Missing = append(report.Missing, RoleMatch{Role: role, Expected: expected})
			continue
		}
		claimed[best] = true
		m := RoleMatch{Role: role, Expected: expected, Actual: &shapes[best], Offset: bestDist}
		if bestDist < MatchEpsilon {
			report.Matched = append(report.Matched, m)
		} else {
			report.Drifted = append(report.Drifted, m)
		}
	}

	for i := range shapes {
		if !claimed[i] {
			report.New = append(report.New, shapes[i])
		}
	}

	if len(pm) > 0 {
		report.MatchRatio = float64(len(report.Matched)+len(report.Drifted)) / float64(len(pm))
	}
	report.Status = StatusOK
	if !report.FullyMatched() {
		report.Status = StatusDegraded
	}
	return report
}
