package deck

import (
	"fmt"
	"strings"
	"time"

	"github.com/atelier-reports/flashdeck/internal/collector"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

const (
	summaryMaxRows     = 14
	notesMaxProjects   = 6
	notesMaxPerProject = 3

	colorHeading = "003366"
	colorSubtle  = "666666"
)

// slideWriter batches text box writes so each layout line reads as one
// call. The first error sticks and later writes are skipped.
type slideWriter struct {
	pkg   *pptx.Package
	slide int
	err   error
}

func (w *slideWriter) box(x, y, width, h float64, text string, style pptx.Style) {
	if w.err != nil {
		return
	}
	w.err = w.pkg.AddTextBox(w.slide, x, y, width, h, text, style)
}

// appendSummarySlide adds the portfolio overview: a header block and
// one table row per project, status and mood tinted with their
// reference-data colors.
func appendSummarySlide(pkg *pptx.Package, snap *collector.Snapshot, layoutFrom int, now time.Time) (int, error) {
	slide, err := pkg.AddBlankSlide(layoutFrom)
	if err != nil {
		return 0, fmt.Errorf("add summary slide: %w", err)
	}
	w := &slideWriter{pkg: pkg, slide: slide}

	w.box(0.4, 0.15, 9, 0.4, "Portfolio Flash Report", pptx.Style{Size: 20, Bold: true, Color: colorHeading})
	w.box(0.4, 0.5, 9, 0.25, "Project portfolio - "+now.Format("02/01/2006"), pptx.Style{Size: 11, Color: colorSubtle})
	w.box(0.4, 0.8, 9, 0.25, fmt.Sprintf("%d projects", len(snap.Projects)), pptx.Style{Size: 10, Italic: true})

	colX := []float64{0.3, 1.0, 3.8, 5.8, 7.5}
	colW := []float64{0.7, 2.8, 1.8, 1.5, 1.3}
	for i, header := range []string{"ID", "Project", "Status", "Mood", "Owner"} {
		w.box(colX[i], 1.1, colW[i], 0.25, header, pptx.Style{Size: 8, Bold: true, Color: colorHeading})
	}

	rowY := 1.38
	const rowH = 0.28
	shown := snap.Projects
	if len(shown) > summaryMaxRows {
		shown = shown[:summaryMaxRows]
	}
	for _, rec := range shown {
		w.box(colX[0], rowY, colW[0], rowH, stringField(rec.Project, "short_id"), pptx.Style{Size: 7, Bold: true})
		w.box(colX[1], rowY, colW[1], rowH, TruncateText(stringField(rec.Project, "name"), 35), pptx.Style{Size: 7})

		statusLabel, statusColor := labelAndColor(rec, snap.ReferenceData, "status", "statuses")
		w.box(colX[2], rowY, colW[2], rowH, statusLabel, pptx.Style{Size: 7, Color: statusColor})

		moodLabel, moodColor := labelAndColor(rec, snap.ReferenceData, "mood", "moods")
		w.box(colX[3], rowY, colW[3], rowH, moodLabel, pptx.Style{Size: 7, Bold: moodColor != "", Color: moodColor})

		w.box(colX[4], rowY, colW[4], rowH, ownerShort(rec.Project), pptx.Style{Size: 7})
		rowY += rowH
	}
	if rest := len(snap.Projects) - len(shown); rest > 0 {
		w.box(0.3, rowY+0.05, 9, 0.2, fmt.Sprintf("... and %d more projects", rest), pptx.Style{Size: 7, Italic: true})
	}
	return slide, w.err
}

// appendDataNotesSlide adds the closing slide listing every field left
// unfilled during generation, grouped by project.
func appendDataNotesSlide(pkg *pptx.Package, unfilled []UnfilledField, layoutFrom int, now time.Time) (int, error) {
	slide, err := pkg.AddBlankSlide(layoutFrom)
	if err != nil {
		return 0, fmt.Errorf("add data notes slide: %w", err)
	}
	w := &slideWriter{pkg: pkg, slide: slide}

	w.box(0.4, 0.15, 9, 0.4, "Data Notes", pptx.Style{Size: 20, Bold: true, Color: colorHeading})
	w.box(0.4, 0.5, 9, 0.25, "Fields not populated", pptx.Style{Size: 10, Color: colorSubtle})

	rowY := 0.9
	if len(unfilled) == 0 {
		w.box(0.4, rowY, 9, 0.2, "All mapped fields populated.", pptx.Style{Size: 8})
	}

	var order []string
	byProject := make(map[string][]string)
	for _, u := range unfilled {
		if _, seen := byProject[u.Project]; !seen {
			order = append(order, u.Project)
		}
		byProject[u.Project] = append(byProject[u.Project], u.Field+": "+u.Reason)
	}
	if len(order) > notesMaxProjects {
		order = order[:notesMaxProjects]
	}
	for _, project := range order {
		w.box(0.5, rowY, 9, 0.18, project+":", pptx.Style{Size: 7, Bold: true})
		rowY += 0.18
		fields := byProject[project]
		if len(fields) > notesMaxPerProject {
			fields = fields[:notesMaxPerProject]
		}
		for _, f := range fields {
			w.box(0.7, rowY, 8.5, 0.16, "- "+f, pptx.Style{Size: 6})
			rowY += 0.16
		}
		rowY += 0.08
	}

	w.box(0.4, 5.2, 9, 0.2, "Generated: "+now.Format("2006-01-02 15:04"), pptx.Style{Size: 6, Italic: true})
	return slide, w.err
}

// labelAndColor resolves a status-like field to its display label and
// reference color. Unknown codes fall back to the raw code, no color.
func labelAndColor(rec *collector.EntityRecord, refs collector.ReferenceSet, field, category string) (string, string) {
	code := codeString(rec.Project[field])
	label := rec.Resolved[field]
	if label == "" {
		label = code
	}
	if label == "" {
		return "-", ""
	}
	return label, refs.Color(category, code)
}

// codeString accepts a bare code or an expanded object.
func codeString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"code", "id", "key"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ownerShort renders the owner's first name, "-" when absent.
func ownerShort(project map[string]any) string {
	owner, _ := project["owner"].(map[string]any)
	name := stringField(owner, "name")
	if name == "" {
		return "-"
	}
	if parts := strings.Fields(name); len(parts) > 0 {
		return parts[0]
	}
	return "-"
}
