package deck

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-reports/flashdeck/internal/collector"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

// DefaultCoverageThreshold is the placement ratio below which a
// generation run gets a low-coverage warning. It never aborts the run.
const DefaultCoverageThreshold = 0.6

// Options tune a generation run. Zero values fall back to defaults.
type Options struct {
	Tolerance         float64
	CoverageThreshold float64
	Now               func() time.Time
	Logger            *zap.Logger
}

func (o *Options) fill() {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.CoverageThreshold <= 0 {
		o.CoverageThreshold = DefaultCoverageThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// UnfilledField records a placeholder left without data, for the
// operator-facing notes at the end of a run.
type UnfilledField struct {
	Project string `json:"project"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

// Result is the machine-readable outcome of a generation run.
type Result struct {
	Report   *Report         `json:"report"`
	Projects int             `json:"projects"`
	Slides   int             `json:"slides"`
	Coverage float64         `json:"coverage"`
	Degraded bool            `json:"degraded"`
	Warnings []string        `json:"warnings,omitempty"`
	Unfilled []UnfilledField `json:"unfilled,omitempty"`
}

// Generate renders one slide per project in the snapshot, locating
// placeholders by position. Verification runs first but a degraded
// report never blocks generation; it downgrades the result. The caller
// is responsible for saving the package afterwards.
func Generate(pkg *pptx.Package, snap *collector.Snapshot, m *Mapping, pm PositionMap, opts Options) (*Result, error) {
	opts.fill()
	if len(snap.Projects) == 0 {
		return nil, fmt.Errorf("snapshot has no projects")
	}

	shapes, err := AnalyzeSlide(pkg, m.Slide)
	if err != nil {
		return nil, fmt.Errorf("analyze template slide %d: %w", m.Slide, err)
	}
	report := Verify(shapes, pm, opts.Tolerance)
	if !report.FullyMatched() {
		opts.Logger.Warn("template verification degraded, generating anyway",
			zap.Int("drifted", len(report.Drifted)),
			zap.Int("missing", len(report.Missing)))
	}

	// Duplicate the pristine template slide before any content lands
	// on it, one copy per additional project.
	targets := []int{m.Slide}
	for i := 1; i < len(snap.Projects); i++ {
		idx, err := pkg.DuplicateSlide(m.Slide)
		if err != nil {
			return nil, fmt.Errorf("duplicate template slide: %w", err)
		}
		targets = append(targets, idx)
	}

	result := &Result{
		Report:   report,
		Projects: len(snap.Projects),
		Degraded: !report.FullyMatched(),
	}

	fillable := 0
	for _, rule := range m.Fields {
		if !rule.Clear {
			fillable++
		}
	}
	// Roles without a stored position affect every project the same
	// way; warn once, not once per slide.
	for _, role := range roleNames(m) {
		if _, ok := pm[role]; !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("role %s has no stored position", role))
		}
	}
	placed := 0
	for i, rec := range snap.Projects {
		n, err := populateSlide(pkg, targets[i], rec, m, pm, opts, result)
		if err != nil {
			return nil, fmt.Errorf("populate slide for project %s: %w", rec.ID, err)
		}
		placed += n
	}

	// Bookend the deck: portfolio summary up front, data notes at the
	// end. Part indexes are untouched, MoveSlide only reorders display.
	if _, err := appendSummarySlide(pkg, snap, m.Slide, opts.Now()); err != nil {
		return nil, err
	}
	if _, err := appendDataNotesSlide(pkg, result.Unfilled, m.Slide, opts.Now()); err != nil {
		return nil, err
	}
	if err := pkg.MoveSlide(pkg.SlideCount()-2, 0); err != nil {
		return nil, fmt.Errorf("reorder summary slide: %w", err)
	}

	if fillable > 0 {
		result.Coverage = float64(placed) / float64(fillable*len(snap.Projects))
	}
	if result.Coverage < opts.CoverageThreshold {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"placeholder coverage %.0f%% below %.0f%% threshold; output may have gaps",
			result.Coverage*100, opts.CoverageThreshold*100))
	}
	result.Slides = pkg.SlideCount()

	opts.Logger.Info("deck generated",
		zap.Int("projects", result.Projects),
		zap.Float64("coverage", result.Coverage),
		zap.Bool("degraded", result.Degraded))
	return result, nil
}

// populateSlide writes one project's content onto one slide and returns
// how many non-clear placeholders received data.
func populateSlide(pkg *pptx.Package, slide int, rec *collector.EntityRecord, m *Mapping, pm PositionMap, opts Options, result *Result) (int, error) {
	shapes, err := AnalyzeSlide(pkg, slide)
	if err != nil {
		return 0, err
	}
	doc := rec.Doc()
	projectName := stringField(rec.Project, "name")
	if projectName == "" {
		projectName = rec.ID
	}

	placed := 0
	for _, role := range roleNames(m) {
		rule := m.Fields[role]
		rect, ok := pm[role]
		if !ok {
			// Already warned once up front.
			continue
		}
		shape := FindShapeByPosition(shapes, rect.X, rect.Y, opts.Tolerance)
		if shape == nil {
			// Verification already reported this; leave the
			// placeholder as-is rather than guessing.
			continue
		}

		if rule.Clear {
			if err := pkg.ClearShapeText(slide, shape.Index); err != nil {
				return placed, err
			}
			continue
		}

		text := renderField(rule, rec, doc, opts.Now)
		if text == "" {
			result.Unfilled = append(result.Unfilled, UnfilledField{
				Project: projectName,
				Field:   role,
				Reason:  "no data",
			})
			if err := pkg.ClearShapeText(slide, shape.Index); err != nil {
				return placed, err
			}
			continue
		}

		fitted, size := FitText(text, rule.MaxChars, rule.MaxLines, rule.MaxCharsPerLine)
		if err := pkg.SetShapeText(slide, shape.Index, fitted, pptx.WithFontSize(size)); err != nil {
			return placed, err
		}
		placed++
	}
	return placed, nil
}

func renderField(rule FieldRule, rec *collector.EntityRecord, doc any, now func() time.Time) string {
	switch rule.Kind {
	case KindRunDate:
		return now().Format("02/01/2006")
	case KindDate:
		values := extractStrings(doc, rule.Path)
		if len(values) == 0 {
			return ""
		}
		return rule.Prefix + FormatDate(values[0])
	case KindBullets:
		perItem := rule.MaxCharsPerLine
		if perItem == 0 {
			perItem = 45
		}
		return FormatBullets(extractStrings(doc, rule.Path), rule.MaxItems, perItem, "")
	case KindStatus:
		status := rec.Resolved["status"]
		mood := rec.Resolved["mood"]
		if status == "" {
			status = "N/A"
		}
		if mood == "" {
			mood = "N/A"
		}
		return fmt.Sprintf("Status: %s\nMood: %s", status, mood)
	default:
		values := extractStrings(doc, rule.Path)
		if len(values) == 0 {
			return ""
		}
		return rule.Prefix + strings.Join(values, "\n")
	}
}

func roleNames(m *Mapping) []string {
	roles := make([]string, 0, len(m.Fields))
	for role := range m.Fields {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
