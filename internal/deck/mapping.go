package deck

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
)

// Field kinds understood by the generator.
const (
	KindText    = "text"     // join extracted values, apply prefix + budget
	KindDate    = "date"     // extracted ISO date rendered dd/mm/yyyy
	KindRunDate = "run_date" // generation date, ignores path
	KindBullets = "bullets"  // extracted values as a clamped bullet list
	KindStatus  = "status"   // "Status: .. / Mood: .." from resolved codes
)

// FieldRule describes how one placeholder role gets its content.
// Roles marked Clear are emptied instead of populated; the template
// layout overlaps them with another shape.
type FieldRule struct {
	Path            string `json:"path,omitempty"`
	Kind            string `json:"kind,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	MaxChars        int    `json:"max_chars,omitempty"`
	MaxLines        int    `json:"max_lines,omitempty"`
	MaxCharsPerLine int    `json:"max_chars_per_line,omitempty"`
	MaxItems        int    `json:"max_items,omitempty"`
	Clear           bool   `json:"clear,omitempty"`
}

// Mapping is the operator-maintained file tying placeholder roles to
// snapshot fields. Slide is the template slide the roles live on.
type Mapping struct {
	Slide  int                  `json:"slide"`
	Fields map[string]FieldRule `json:"fields"`
}

// LoadMapping reads and validates a mapping file. Every non-clear rule
// other than run_date needs a parseable JSONPath.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping %s: %w", path, err)
	}
	if len(m.Fields) == 0 {
		return nil, fmt.Errorf("mapping %s defines no fields", path)
	}
	for role, rule := range m.Fields {
		if rule.Clear || rule.Kind == KindRunDate || rule.Kind == KindStatus {
			continue
		}
		if rule.Path == "" {
			return nil, fmt.Errorf("mapping %s: field %s has no path", path, role)
		}
		if _, err := jp.ParseString(rule.Path); err != nil {
			return nil, fmt.Errorf("mapping %s: field %s: bad path %q: %w", path, role, rule.Path, err)
		}
	}
	return &m, nil
}

// extractStrings evaluates a JSONPath against a record and stringifies
// the hits in document order.
func extractStrings(doc any, path string) []string {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	var out []string
	for _, v := range x.Get(doc) {
		switch t := v.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case int64:
			out = append(out, fmt.Sprintf("%d", t))
		case float64:
			out = append(out, fmt.Sprintf("%g", t))
		case bool:
			out = append(out, fmt.Sprintf("%t", t))
		}
	}
	return out
}
