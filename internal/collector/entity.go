package collector

import (
	"context"
	"fmt"
	"net/url"
)

// EntityRecord is one fetched project with its related collections.
// Related-collection failures leave the collection empty and add a note
// to Errors; only a failed primary detail call drops the whole record.
type EntityRecord struct {
	ID              string            `json:"id"`
	Project         map[string]any    `json:"project"`
	Resolved        map[string]string `json:"resolved,omitempty"`
	Milestones      []any             `json:"milestones"`
	Decisions       []any             `json:"decisions"`
	AttentionPoints []any             `json:"attention_points"`
	Errors          []string          `json:"errors,omitempty"`
}

// relatedEndpoints are the per-entity sub-collections, each filtered
// server-side by project id.
var relatedEndpoints = []struct {
	name string
	path string
}{
	{"milestones", "/api/milestones"},
	{"decisions", "/api/decisions"},
	{"attention_points", "/api/attention-points"},
}

// FetchEntity retrieves one project's detail plus its related
// collections. The returned error is non-nil only when the primary
// detail call failed.
func (c *Client) FetchEntity(ctx context.Context, id string, refs ReferenceSet) (*EntityRecord, error) {
	q := url.Values{}
	q.Set("expand", "mood,status,risk_level,owner")
	doc, err := c.getJSON(ctx, c.endpoint("/api/projects/"+id, q))
	if err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", id, err)
	}
	project, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fetch project %s: unexpected detail shape %T", id, doc)
	}

	rec := &EntityRecord{
		ID:              id,
		Project:         project,
		Resolved:        resolveCodes(project, refs),
		Milestones:      []any{},
		Decisions:       []any{},
		AttentionPoints: []any{},
	}

	for _, ep := range relatedEndpoints {
		q := url.Values{}
		q.Set("project", id)
		items, err := c.FetchAllPages(ctx, ep.path, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", ep.name, err))
			continue
		}
		switch ep.name {
		case "milestones":
			rec.Milestones = items
		case "decisions":
			rec.Decisions = items
		case "attention_points":
			rec.AttentionPoints = items
		}
	}
	return rec, nil
}

// resolveCodes maps the entity's status-like codes to display labels.
// Unknown codes pass through unchanged.
func resolveCodes(project map[string]any, refs ReferenceSet) map[string]string {
	resolved := make(map[string]string, 3)
	for field, category := range map[string]string{
		"mood":       "moods",
		"status":     "statuses",
		"risk_level": "risk_levels",
	} {
		if code := codeOf(project[field]); code != "" {
			resolved[field] = refs.Resolve(category, code)
		}
	}
	return resolved
}

// codeOf accepts either a bare code string or an expanded object with a
// code/id field.
func codeOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return firstString(t, "code", "id", "key")
	}
	return ""
}

// Doc returns the record as dynamic JSON for JSONPath extraction.
func (r *EntityRecord) Doc() map[string]any {
	return map[string]any{
		"id":               r.ID,
		"project":          r.Project,
		"resolved":         toAnyMap(r.Resolved),
		"milestones":       r.Milestones,
		"decisions":        r.Decisions,
		"attention_points": r.AttentionPoints,
	}
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
