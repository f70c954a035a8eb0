package pptx

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// TextOption adjusts how replacement text is written.
type TextOption func(*textOptions)

type textOptions struct {
	fontSize float64 // points, 0 = keep template size
}

// WithFontSize overrides the run font size in points. The template's
// other run properties (font, color, bold) are kept as-is.
func WithFontSize(points float64) TextOption {
	return func(o *textOptions) { o.fontSize = points }
}

var szAttrRe = regexp.MustCompile(`\ssz="\d+"`)

// SetShapeText replaces the full text content of a shape, preserving
// the template's body and run properties. Newlines in text become
// separate paragraphs. An empty string clears the shape (one empty
// paragraph keeps the XML valid).
func (p *Package) SetShapeText(slide, index int, text string, opts ...TextOption) error {
	var o textOptions
	for _, opt := range opts {
		opt(&o)
	}

	name, data, err := p.slidePart(slide)
	if err != nil {
		return err
	}
	spans, err := scanShapes(data)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(spans) {
		return fmt.Errorf("shape %d out of range on slide %d (have %d)", index, slide, len(spans))
	}
	span := spans[index]
	if !span.shape.HasText {
		return fmt.Errorf("shape %d on slide %d has no text body", index, slide)
	}

	body := buildTxBody(span, text, o)
	out := make([]byte, 0, len(data)+len(body))
	out = append(out, data[:span.txStart]...)
	out = append(out, body...)
	out = append(out, data[span.txEnd:]...)
	p.setPart(name, out)
	return nil
}

// ClearShapeText empties a shape's text content.
func (p *Package) ClearShapeText(slide, index int) error {
	return p.SetShapeText(slide, index, "")
}

func buildTxBody(span shapeSpan, text string, o textOptions) []byte {
	bodyPr := span.bodyPr
	if bodyPr == nil {
		bodyPr = []byte(`<a:bodyPr/>`)
	}
	rPr := span.rPr
	if o.fontSize > 0 {
		rPr = withFontSize(rPr, o.fontSize)
	}

	var buf bytes.Buffer
	buf.WriteString("<p:txBody>")
	buf.Write(bodyPr)
	buf.WriteString("<a:lstStyle/>")
	for _, line := range strings.Split(text, "\n") {
		buf.WriteString("<a:p>")
		buf.Write(span.pPr)
		if line != "" {
			buf.WriteString("<a:r>")
			buf.Write(rPr)
			buf.WriteString("<a:t>")
			buf.WriteString(xmlEscape(line))
			buf.WriteString("</a:t></a:r>")
		}
		buf.WriteString("</a:p>")
	}
	buf.WriteString("</p:txBody>")
	return buf.Bytes()
}

// withFontSize rewrites the sz attribute of a raw <a:rPr> fragment.
// OOXML stores sizes in hundredths of a point.
func withFontSize(rPr []byte, points float64) []byte {
	sz := fmt.Sprintf(` sz="%d"`, int(points*100))
	if rPr == nil {
		return []byte(`<a:rPr lang="en-US"` + sz + `/>`)
	}
	if szAttrRe.Match(rPr) {
		return szAttrRe.ReplaceAll(rPr, []byte(sz))
	}
	// Insert after the element name.
	i := bytes.IndexAny(rPr, " />")
	if i < 0 {
		return rPr
	}
	out := make([]byte, 0, len(rPr)+len(sz))
	out = append(out, rPr[:i]...)
	out = append(out, sz...)
	out = append(out, rPr[i:]...)
	return out
}
