package deck

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 20))
	assert.Equal(t, "", TruncateText("", 10))

	long := "a rather long project description that keeps going"
	got := TruncateText(long, 30)
	assert.LessOrEqual(t, len(got), 30)
	assert.True(t, strings.HasSuffix(got, "..."))
	// Cut lands on a word boundary, not mid-word.
	assert.NotContains(t, got, "descrip...")
}

func TestTruncateLines(t *testing.T) {
	text := "first line\nsecond line\nthird line\nfourth line"
	got := TruncateLines(text, 2, 0)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "..."))

	assert.Equal(t, "one\ntwo", TruncateLines("one\ntwo", 5, 0))
}

func TestTruncateLines_MultibyteLastLine(t *testing.T) {
	// The ellipsis replaces whole runes, never splits one.
	got := TruncateLines("première étape\ndeuxième étape", 1, 0)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "première ét...", got)
}

func TestFitText_FontStepsDown(t *testing.T) {
	_, size := FitText("ok", 100, 0, 0)
	assert.Equal(t, float64(fontContent), size)

	_, size = FitText(strings.Repeat("x", 85), 100, 0, 0)
	assert.Equal(t, float64(fontContentSmall), size)

	_, size = FitText(strings.Repeat("x", 99), 100, 0, 0)
	assert.Equal(t, float64(fontContentTiny), size)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "14/01/2026", FormatDate("2026-01-14"))
	assert.Equal(t, "14/01/2026", FormatDate("2026-01-14T09:30:00Z"))
	assert.Equal(t, "14/01/2026", FormatDate("2026-01-14T09:30:00"))
	assert.Equal(t, "", FormatDate(""))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}

func TestFormatBullets(t *testing.T) {
	items := []string{"first milestone", "second milestone", "third", "fourth", "fifth"}
	got := FormatBullets(items, 3, 40, "• ")
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "• first milestone", lines[0])
	assert.Equal(t, "  (+2 more)", lines[3])

	assert.Equal(t, "", FormatBullets(nil, 3, 40, "• "))
}
