package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Shape is one drawable on a slide. Geometry is in inches, rounded to
// two decimals to absorb EMU round-trip noise. Index is the shape's
// position in slide document order and stays valid until the slide's
// XML is rewritten.
type Shape struct {
	Index   int
	Name    string
	X       float64
	Y       float64
	W       float64
	H       float64
	Text    string
	HasText bool
}

// shapeSpan augments a Shape with the byte ranges needed for splicing.
type shapeSpan struct {
	shape Shape

	txStart, txEnd int64 // <p:txBody>...</p:txBody> range, 0,0 when absent
	bodyPr         []byte
	pPr            []byte // first paragraph's properties, may be nil
	rPr            []byte // first run's properties, may be nil
}

// Shapes enumerates every shape on a slide in document order.
func (p *Package) Shapes(slide int) ([]Shape, error) {
	_, data, err := p.slidePart(slide)
	if err != nil {
		return nil, err
	}
	spans, err := scanShapes(data)
	if err != nil {
		return nil, err
	}
	shapes := make([]Shape, len(spans))
	for i, s := range spans {
		shapes[i] = s.shape
	}
	return shapes, nil
}

// scanShapes walks slide XML with raw tokens so namespace prefixes and
// byte offsets stay exactly as authored.
func scanShapes(data []byte) ([]shapeSpan, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		spans []shapeSpan
		cur   *shapeSpan
		depth int // element depth relative to the open <p:sp>, 0 when outside

		inTxBody   bool
		inXfrm     bool
		paragraphs []string
		para       strings.Builder
		inText     bool

		capName  string // element being captured (bodyPr/pPr/rPr)
		capStart int64
		capDepth int
	)

	prevOffset := dec.InputOffset()
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
		}
		tokStart := prevOffset
		prevOffset = dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			name := rawName(t.Name)
			if cur == nil {
				if name == "p:sp" {
					spans = append(spans, shapeSpan{shape: Shape{Index: len(spans)}})
					cur = &spans[len(spans)-1]
					depth = 1
					paragraphs = nil
					para.Reset()
				}
				continue
			}
			depth++
			switch name {
			case "p:cNvPr":
				if cur.shape.Name == "" {
					cur.shape.Name = attrValue(t.Attr, "name")
				}
			case "a:xfrm":
				inXfrm = true
			case "a:off":
				if inXfrm && cur.shape.W == 0 && cur.shape.H == 0 {
					cur.shape.X = emuAttrInches(t.Attr, "x")
					cur.shape.Y = emuAttrInches(t.Attr, "y")
				}
			case "a:ext":
				if inXfrm && cur.shape.W == 0 && cur.shape.H == 0 {
					cur.shape.W = emuAttrInches(t.Attr, "cx")
					cur.shape.H = emuAttrInches(t.Attr, "cy")
				}
			case "p:txBody":
				cur.shape.HasText = true
				inTxBody = true
				cur.txStart = tokStart
			case "a:br":
				if inTxBody {
					para.WriteByte('\n')
				}
			case "a:t":
				inText = inTxBody
			}
			if inTxBody && capName == "" {
				switch name {
				case "a:bodyPr":
					if cur.bodyPr == nil {
						capName, capStart, capDepth = name, tokStart, depth
					}
				case "a:pPr":
					if cur.pPr == nil {
						capName, capStart, capDepth = name, tokStart, depth
					}
				case "a:rPr":
					if cur.rPr == nil {
						capName, capStart, capDepth = name, tokStart, depth
					}
				}
			}

		case xml.EndElement:
			name := rawName(t.Name)
			if cur == nil {
				continue
			}
			if capName != "" && name == capName && depth == capDepth {
				raw := append([]byte(nil), data[capStart:prevOffset]...)
				switch capName {
				case "a:bodyPr":
					cur.bodyPr = raw
				case "a:pPr":
					cur.pPr = raw
				case "a:rPr":
					cur.rPr = raw
				}
				capName = ""
			}
			switch name {
			case "a:t":
				inText = false
			case "a:p":
				if inTxBody {
					paragraphs = append(paragraphs, para.String())
					para.Reset()
				}
			case "a:xfrm":
				inXfrm = false
			case "p:txBody":
				inTxBody = false
				cur.txEnd = prevOffset
			}
			depth--
			if depth == 0 {
				cur.shape.Text = strings.Join(paragraphs, "\n")
				cur = nil
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return spans, nil
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if rawName(a.Name) == name {
			return a.Value
		}
	}
	return ""
}

func emuAttrInches(attrs []xml.Attr, name string) float64 {
	v := attrValue(attrs, name)
	if v == "" {
		return 0
	}
	emu, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return roundInches(float64(emu) / EMUPerInch)
}

func roundInches(v float64) float64 {
	return math.Round(v*100) / 100
}
