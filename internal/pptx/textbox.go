package pptx

import (
	"bytes"
	"fmt"
	"strings"
)

var spTreeEnd = []byte("</p:spTree>")

const blankSlideXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
	`<p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr/>` +
	`</p:spTree></p:cSld></p:sld>`

// AddBlankSlide appends an empty slide to the presentation, inheriting
// the layout relationships of an existing slide so the new one renders
// on the same master. Returns the new slide's index.
func (p *Package) AddBlankSlide(layoutFrom int) (int, error) {
	srcName, _, err := p.slidePart(layoutFrom)
	if err != nil {
		return 0, err
	}

	n := p.maxSlideNumber() + 1
	newName := fmt.Sprintf("ppt/slides/slide%d.xml", n)
	p.setPart(newName, []byte(blankSlideXML))

	if rels, ok := p.parts["ppt/slides/_rels/"+baseName(srcName)+".rels"]; ok {
		p.setPart(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), append([]byte(nil), rels...))
	}

	if err := p.declareSlideContentType(newName); err != nil {
		return 0, err
	}
	rID, err := p.addPresentationRel(n)
	if err != nil {
		return 0, err
	}
	if err := p.appendSlideID(rID); err != nil {
		return 0, err
	}

	for i, name := range p.SlideParts() {
		if name == newName {
			return i, nil
		}
	}
	return 0, fmt.Errorf("blank slide %s not found after insert", newName)
}

// Style is the run formatting for text boxes added to a slide. Zero
// values keep the presentation defaults.
type Style struct {
	Size   float64 // points
	Bold   bool
	Italic bool
	Color  string // RRGGBB hex
}

// AddTextBox appends a text box to a slide at the given geometry in
// inches. Newlines in text become separate paragraphs.
func (p *Package) AddTextBox(slide int, x, y, w, h float64, text string, style Style) error {
	name, data, err := p.slidePart(slide)
	if err != nil {
		return err
	}
	end := bytes.LastIndex(data, spTreeEnd)
	if end < 0 {
		return fmt.Errorf("slide %d has no shape tree", slide)
	}

	id := bytes.Count(data, []byte("<p:cNvPr")) + 1
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id)
	fmt.Fprintf(&buf, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		toEMU(x), toEMU(y), toEMU(w), toEMU(h))
	buf.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`)
	buf.WriteString(`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>`)
	for _, line := range strings.Split(text, "\n") {
		buf.WriteString("<a:p>")
		if line != "" {
			buf.WriteString("<a:r>")
			buf.WriteString(styleRunProps(style))
			buf.WriteString("<a:t>")
			buf.WriteString(xmlEscape(line))
			buf.WriteString("</a:t></a:r>")
		}
		buf.WriteString("</a:p>")
	}
	buf.WriteString("</p:txBody></p:sp>")

	out := make([]byte, 0, len(data)+buf.Len())
	out = append(out, data[:end]...)
	out = append(out, buf.Bytes()...)
	out = append(out, data[end:]...)
	p.setPart(name, out)
	return nil
}

func styleRunProps(s Style) string {
	var b strings.Builder
	b.WriteString(`<a:rPr lang="en-US"`)
	if s.Size > 0 {
		fmt.Fprintf(&b, ` sz="%d"`, int(s.Size*100))
	}
	if s.Bold {
		b.WriteString(` b="1"`)
	}
	if s.Italic {
		b.WriteString(` i="1"`)
	}
	if s.Color == "" {
		b.WriteString("/>")
		return b.String()
	}
	fmt.Fprintf(&b, `><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr>`, xmlEscape(s.Color))
	return b.String()
}

func toEMU(inches float64) int64 { return int64(inches * EMUPerInch) }

// MoveSlide repositions a slide in presentation order. from and to are
// positions in the slide id list; slide part names and the indexes used
// by Shapes and friends are unaffected, only display order changes.
func (p *Package) MoveSlide(from, to int) error {
	const partName = "ppt/presentation.xml"
	pres, ok := p.parts[partName]
	if !ok {
		return fmt.Errorf("package has no %s", partName)
	}
	listStart := bytes.Index(pres, []byte("<p:sldIdLst"))
	listEnd := bytes.Index(pres, sldLstEn)
	if listStart < 0 || listEnd < 0 {
		return fmt.Errorf("malformed %s: no slide id list", partName)
	}
	open := bytes.IndexByte(pres[listStart:listEnd], '>')
	if open < 0 {
		return fmt.Errorf("malformed %s: unterminated slide id list", partName)
	}
	bodyStart := listStart + open + 1

	entries := sldEntryRe.FindAll(pres[bodyStart:listEnd], -1)
	if from < 0 || from >= len(entries) || to < 0 || to >= len(entries) {
		return fmt.Errorf("move slide %d to %d out of range (have %d)", from, to, len(entries))
	}
	moved := entries[from]
	entries = append(entries[:from], entries[from+1:]...)
	rest := append([][]byte{}, entries[:to]...)
	rest = append(rest, moved)
	rest = append(rest, entries[to:]...)

	out := make([]byte, 0, len(pres))
	out = append(out, pres[:bodyStart]...)
	out = append(out, bytes.Join(rest, nil)...)
	out = append(out, pres[listEnd:]...)
	p.setPart(partName, out)
	return nil
}
