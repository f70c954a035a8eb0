package pptx

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

const slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
const slideRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"

var (
	relIDRe    = regexp.MustCompile(`Id="rId(\d+)"`)
	sldIDRe    = regexp.MustCompile(`<p:sldId id="(\d+)"`)
	sldEntryRe = regexp.MustCompile(`<p:sldId[^>]*/>`)
	typesEnd   = []byte("</Types>")
	relsEnd    = []byte("</Relationships>")
	sldLstEn   = []byte("</p:sldIdLst>")
)

// DuplicateSlide clones a slide as a full element-tree copy: the new
// slide part is byte-identical to the source, its relationships (layout,
// images) are reused, and it is appended to the presentation's slide
// list. Returns the new slide's index.
//
// Cloning the whole part is what keeps template styling intact, but it
// also means the copy's shape names stay the same as the source's;
// callers must locate shapes by geometry, not name.
func (p *Package) DuplicateSlide(src int) (int, error) {
	srcName, srcData, err := p.slidePart(src)
	if err != nil {
		return 0, err
	}

	n := p.maxSlideNumber() + 1
	newName := fmt.Sprintf("ppt/slides/slide%d.xml", n)
	p.setPart(newName, append([]byte(nil), srcData...))

	// Relationships part (layout, images) travels with the slide.
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
	return 0, fmt.Errorf("duplicated slide %s not found after insert", newName)
}

func (p *Package) maxSlideNumber() int {
	max := 0
	for name := range p.parts {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > max {
			max = n
		}
	}
	return max
}

func (p *Package) declareSlideContentType(partName string) error {
	ct, ok := p.parts["[Content_Types].xml"]
	if !ok {
		return fmt.Errorf("package has no [Content_Types].xml")
	}
	override := fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, partName, slideContentType)
	out := bytes.Replace(ct, typesEnd, []byte(override+string(typesEnd)), 1)
	if bytes.Equal(out, ct) {
		return fmt.Errorf("malformed [Content_Types].xml: no closing Types element")
	}
	p.setPart("[Content_Types].xml", out)
	return nil
}

func (p *Package) addPresentationRel(slideNum int) (string, error) {
	const name = "ppt/_rels/presentation.xml.rels"
	rels, ok := p.parts[name]
	if !ok {
		return "", fmt.Errorf("package has no %s", name)
	}
	maxID := 0
	for _, m := range relIDRe.FindAllSubmatch(rels, -1) {
		if n, _ := strconv.Atoi(string(m[1])); n > maxID {
			maxID = n
		}
	}
	rID := fmt.Sprintf("rId%d", maxID+1)
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="slides/slide%d.xml"/>`, rID, slideRelType, slideNum)
	out := bytes.Replace(rels, relsEnd, []byte(rel+string(relsEnd)), 1)
	if bytes.Equal(out, rels) {
		return "", fmt.Errorf("malformed %s: no closing Relationships element", name)
	}
	p.setPart(name, out)
	return rID, nil
}

func (p *Package) appendSlideID(rID string) error {
	const name = "ppt/presentation.xml"
	pres, ok := p.parts[name]
	if !ok {
		return fmt.Errorf("package has no %s", name)
	}
	maxID := 255 // OOXML reserves slide ids below 256
	for _, m := range sldIDRe.FindAllSubmatch(pres, -1) {
		if n, _ := strconv.Atoi(string(m[1])); n > maxID {
			maxID = n
		}
	}
	entry := fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, maxID+1, rID)
	out := bytes.Replace(pres, sldLstEn, []byte(entry+string(sldLstEn)), 1)
	if bytes.Equal(out, pres) {
		return fmt.Errorf("malformed %s: no slide id list", name)
	}
	p.setPart(name, out)
	return nil
}

func baseName(partName string) string {
	for i := len(partName) - 1; i >= 0; i-- {
		if partName[i] == '/' {
			return partName[i+1:]
		}
	}
	return partName
}
