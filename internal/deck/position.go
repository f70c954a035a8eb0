// Package deck keeps a presentation template's shape geometry in sync
// with a persisted position map and renders project-review decks by
// nearest-position lookup. Shape names are not stable across slide
// duplication, so geometry is the only identity used here.
package deck

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/atelier-reports/flashdeck/internal/pptx"
)

// ShapePosition is the geometric descriptor of one placeholder on a
// slide, in inches rounded to two decimals.
type ShapePosition struct {
	Slide int     `json:"slide"`
	Index int     `json:"index"`
	Name  string  `json:"name,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Text  string  `json:"text,omitempty"`
}

// Rect is a stored expectation for one placeholder role.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// PositionMap is the persisted role -> expected-position contract. It
// is written only by an explicit export; verify and generate read it at
// call time, never mutate it.
type PositionMap map[string]Rect

// LoadPositionMap reads a position map file.
func LoadPositionMap(path string) (PositionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read position map %s: %w", path, err)
	}
	var m PositionMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode position map %s: %w", path, err)
	}
	return m, nil
}

// Save persists the map. Only the export command calls this.
func (m PositionMap) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode position map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write position map %s: %w", path, err)
	}
	return nil
}

// Analyze enumerates every shape on every slide of the template.
func Analyze(pkg *pptx.Package) ([]ShapePosition, error) {
	var out []ShapePosition
	for slide := 0; slide < pkg.SlideCount(); slide++ {
		shapes, err := pkg.Shapes(slide)
		if err != nil {
			return nil, fmt.Errorf("analyze slide %d: %w", slide, err)
		}
		for _, s := range shapes {
			out = append(out, ShapePosition{
				Slide: slide,
				Index: s.Index,
				Name:  s.Name,
				X:     s.X,
				Y:     s.Y,
				W:     s.W,
				H:     s.H,
				Text:  preview(s.Text),
			})
		}
	}
	return out, nil
}

// AnalyzeSlide enumerates one slide's shapes.
func AnalyzeSlide(pkg *pptx.Package, slide int) ([]ShapePosition, error) {
	shapes, err := pkg.Shapes(slide)
	if err != nil {
		return nil, err
	}
	out := make([]ShapePosition, len(shapes))
	for i, s := range shapes {
		out[i] = ShapePosition{
			Slide: slide, Index: s.Index, Name: s.Name,
			X: s.X, Y: s.Y, W: s.W, H: s.H, Text: preview(s.Text),
		}
	}
	return out, nil
}

func (s ShapePosition) distanceTo(x, y float64) float64 {
	dx := s.X - x
	dy := s.Y - y
	return math.Hypot(dx, dy)
}

func preview(text string) string {
	const limit = 50
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
