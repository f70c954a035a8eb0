// Package pptx implements the narrow slice of the PresentationML
// format this tool needs: enumerating shape geometry and text, replacing
// shape text in place, and cloning whole slides. It deliberately avoids
// a full OOXML object model; slide XML is spliced at the byte level so
// everything not touched survives verbatim (styling, images, borders).
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
)

// EMUPerInch is the OOXML length unit: 914400 English Metric Units per inch.
const EMUPerInch = 914400

// Package is an opened .pptx file: a zip of XML parts held in memory.
type Package struct {
	parts map[string][]byte
	order []string
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Open reads a .pptx file from disk.
func Open(path string) (*Package, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	p := &Package{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s in %s: %w", f.Name, path, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s in %s: %w", f.Name, path, err)
		}
		p.parts[f.Name] = data
		p.order = append(p.order, f.Name)
	}
	if len(p.SlideParts()) == 0 {
		return nil, fmt.Errorf("template %s has no slides", path)
	}
	return p, nil
}

// FromParts builds an in-memory package. Tests use this to construct
// minimal fixtures without touching disk.
func FromParts(parts map[string][]byte) *Package {
	p := &Package{parts: make(map[string][]byte, len(parts))}
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.parts[name] = append([]byte(nil), parts[name]...)
		p.order = append(p.order, name)
	}
	return p
}

// Save writes the package back out as a zip.
func (p *Package) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	zw := zip.NewWriter(f)
	for _, name := range p.order {
		w, err := zw.Create(name)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("write part %s: %w", name, err)
		}
		if _, err := w.Write(p.parts[name]); err != nil {
			_ = f.Close()
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}

// Part returns a raw part by zip name.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

func (p *Package) setPart(name string, data []byte) {
	if _, exists := p.parts[name]; !exists {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

// SlideParts returns slide part names in numeric order. Slide indexes
// used throughout this package refer to positions in this list; the
// templates handled here are authored with slide numbering matching
// presentation order.
func (p *Package) SlideParts() []string {
	type numbered struct {
		name string
		n    int
	}
	var slides []numbered
	for name := range p.parts {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, numbered{name, n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

// SlideCount reports the number of slides.
func (p *Package) SlideCount() int { return len(p.SlideParts()) }

func (p *Package) slidePart(slide int) (string, []byte, error) {
	names := p.SlideParts()
	if slide < 0 || slide >= len(names) {
		return "", nil, fmt.Errorf("slide %d out of range (have %d)", slide, len(names))
	}
	return names[slide], p.parts[names[slide]], nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
