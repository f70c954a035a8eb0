package deck

import (
	"fmt"
	"strings"
	"time"
)

// TruncateText shortens text to maxChars, preferring a word boundary
// when one falls late enough and appending an ellipsis.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	cut := maxChars - len(ellipsis)
	if cut < 0 {
		cut = 0
	}
	truncated := string(runes[:cut])
	if i := strings.LastIndex(truncated, " "); i > (maxChars*7)/10 {
		truncated = truncated[:i]
	}
	return strings.TrimRight(truncated, " ") + ellipsis
}

// TruncateLines clamps text to maxLines, optionally clamping each line,
// and marks the cut with an ellipsis on the last surviving line.
func TruncateLines(text string, maxLines, maxCharsPerLine int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if maxCharsPerLine > 0 {
		for i, line := range lines {
			if len([]rune(line)) > maxCharsPerLine {
				lines[i] = TruncateText(line, maxCharsPerLine)
			}
		}
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[len(lines)-1])
		if !strings.HasSuffix(string(last), "...") {
			if len(last) > 3 {
				lines[len(lines)-1] = strings.TrimRight(string(last[:len(last)-3]), " ") + "..."
			} else {
				lines = append(lines, "...")
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Font sizes in points for fitted content. Long content steps down so
// it stays inside the shape.
const (
	fontContent      = 9
	fontContentSmall = 8
	fontContentTiny  = 7
)

// FitText applies the role's character and line budget and picks a font
// size for the result.
func FitText(text string, maxChars, maxLines, maxCharsPerLine int) (string, float64) {
	if text == "" {
		return "", fontContent
	}
	if maxChars > 0 && len([]rune(text)) > maxChars {
		text = TruncateText(text, maxChars)
	}
	text = TruncateLines(text, maxLines, maxCharsPerLine)

	size := float64(fontContent)
	if maxChars > 0 {
		n := len([]rune(text))
		if n > (maxChars*8)/10 {
			size = fontContentSmall
		}
		if n > (maxChars*95)/100 {
			size = fontContentTiny
		}
	}
	return text, size
}

// FormatDate renders an ISO-8601 date or timestamp as dd/mm/yyyy.
// Anything unparseable passes through unchanged.
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return iso
}

// FormatBullets renders items as a clamped bullet list with a
// "(+N more)" marker when items overflow.
func FormatBullets(items []string, maxItems, maxCharsPerItem int, prefix string) string {
	if len(items) == 0 {
		return ""
	}
	if prefix == "" {
		prefix = "• "
	}
	shown := items
	if maxItems > 0 && len(items) > maxItems {
		shown = items[:maxItems]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, item := range shown {
		if maxCharsPerItem > 0 {
			item = TruncateText(item, maxCharsPerItem-len([]rune(prefix)))
		}
		lines = append(lines, prefix+item)
	}
	if rest := len(items) - len(shown); rest > 0 {
		lines = append(lines, fmt.Sprintf("  (+%d more)", rest))
	}
	return strings.Join(lines, "\n")
}
