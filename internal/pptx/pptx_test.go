package pptx

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureShape renders one <p:sp> at (x, y) inches with text.
func fixtureShape(id int, name string, x, y, w, h float64, text string) string {
	toEMU := func(v float64) int64 { return int64(v * EMUPerInch) }
	runs := ""
	for _, line := range strings.Split(text, "\n") {
		runs += fmt.Sprintf(`<a:p><a:pPr algn="l"/><a:r><a:rPr lang="en-US" sz="900" b="0"/><a:t>%s</a:t></a:r></a:p>`, line)
	}
	return fmt.Sprintf(`<p:sp>`+
		`<p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr>`+
		`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>%s</p:txBody>`+
		`</p:sp>`,
		id, name, toEMU(x), toEMU(y), toEMU(w), toEMU(h), runs)
}

func fixtureSlide(shapes ...string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld></p:sld>`)
}

// fixturePackage builds a one-slide template with the standard shapes
// used across these tests.
func fixturePackage(slide []byte) *Package {
	return FromParts(map[string][]byte{
		"[Content_Types].xml": []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
			`<Override PartName="/ppt/slides/slide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>` +
			`</Types>`),
		"ppt/presentation.xml": []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
			` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
			`<p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst>` +
			`</p:presentation>`),
		"ppt/_rels/presentation.xml.rels": []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
			`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>` +
			`</Relationships>`),
		"ppt/slides/slide1.xml": slide,
		"ppt/slides/_rels/slide1.xml.rels": []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
			`</Relationships>`),
	})
}

func standardFixture() *Package {
	return fixturePackage(fixtureSlide(
		fixtureShape(2, "Title 1", 0.39, 0.17, 7.99, 0.43, "Project review :"),
		fixtureShape(3, "Date 1", 8.88, 0.08, 1.07, 0.35, "dd/mm/yy"),
		fixtureShape(4, "Status 1", 0.39, 0.98, 4.53, 0.96, "xxx"),
	))
}

func TestShapes_GeometryAndText(t *testing.T) {
	pkg := standardFixture()
	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	require.Len(t, shapes, 3)

	title := shapes[0]
	assert.Equal(t, 0, title.Index)
	assert.Equal(t, "Title 1", title.Name)
	assert.InDelta(t, 0.39, title.X, 0.001)
	assert.InDelta(t, 0.17, title.Y, 0.001)
	assert.InDelta(t, 7.99, title.W, 0.001)
	assert.InDelta(t, 0.43, title.H, 0.001)
	assert.Equal(t, "Project review :", title.Text)
	assert.True(t, title.HasText)

	assert.Equal(t, "Date 1", shapes[1].Name)
	assert.InDelta(t, 8.88, shapes[1].X, 0.001)
}

func TestSetShapeText_ReplacesAndPreservesOthers(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.SetShapeText(0, 0, "Project review : Apollo"))

	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "Project review : Apollo", shapes[0].Text)
	assert.Equal(t, "dd/mm/yy", shapes[1].Text)
	assert.Equal(t, "xxx", shapes[2].Text)

	// Geometry is untouched by a text rewrite.
	assert.InDelta(t, 0.39, shapes[0].X, 0.001)
}

func TestSetShapeText_MultilineAndEscaping(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.SetShapeText(0, 2, "Status: R&D <phase 2>\nMood: good"))

	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "Status: R&D <phase 2>\nMood: good", shapes[2].Text)
}

func TestSetShapeText_FontSizeOverride(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.SetShapeText(0, 0, "tiny", WithFontSize(7)))

	data, ok := pkg.Part("ppt/slides/slide1.xml")
	require.True(t, ok)
	assert.Contains(t, string(data), `sz="700"`)
}

func TestClearShapeText(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.ClearShapeText(0, 2))

	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "", shapes[2].Text)
	assert.True(t, shapes[2].HasText)
}

func TestDuplicateSlide(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.SetShapeText(0, 0, "original populated"))

	idx, err := pkg.DuplicateSlide(0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, pkg.SlideCount())

	// The copy carries the source's current content and geometry.
	copies, err := pkg.Shapes(1)
	require.NoError(t, err)
	require.Len(t, copies, 3)
	assert.Equal(t, "original populated", copies[0].Text)
	assert.InDelta(t, 8.88, copies[1].X, 0.001)

	// Bookkeeping parts all know about the new slide.
	ct, _ := pkg.Part("[Content_Types].xml")
	assert.Contains(t, string(ct), "/ppt/slides/slide2.xml")
	rels, _ := pkg.Part("ppt/_rels/presentation.xml.rels")
	assert.Contains(t, string(rels), `Target="slides/slide2.xml"`)
	pres, _ := pkg.Part("ppt/presentation.xml")
	assert.Contains(t, string(pres), `<p:sldId id="257"`)
	_, hasRels := pkg.Part("ppt/slides/_rels/slide2.xml.rels")
	assert.True(t, hasRels)
}

func TestDuplicateSlide_IndependentEdits(t *testing.T) {
	pkg := standardFixture()
	_, err := pkg.DuplicateSlide(0)
	require.NoError(t, err)

	require.NoError(t, pkg.SetShapeText(1, 0, "second project"))

	first, err := pkg.Shapes(0)
	require.NoError(t, err)
	second, err := pkg.Shapes(1)
	require.NoError(t, err)
	assert.Equal(t, "Project review :", first[0].Text)
	assert.Equal(t, "second project", second[0].Text)
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.SetShapeText(0, 0, "saved content"))

	path := filepath.Join(t.TempDir(), "out.pptx")
	require.NoError(t, pkg.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	shapes, err := reopened.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "saved content", shapes[0].Text)
}

func TestAddBlankSlide(t *testing.T) {
	pkg := standardFixture()
	idx, err := pkg.AddBlankSlide(0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, pkg.SlideCount())

	shapes, err := pkg.Shapes(idx)
	require.NoError(t, err)
	assert.Empty(t, shapes)

	// Layout rels borrowed from the source slide, bookkeeping complete.
	_, hasRels := pkg.Part("ppt/slides/_rels/slide2.xml.rels")
	assert.True(t, hasRels)
	ct, _ := pkg.Part("[Content_Types].xml")
	assert.Contains(t, string(ct), "/ppt/slides/slide2.xml")
	pres, _ := pkg.Part("ppt/presentation.xml")
	assert.Contains(t, string(pres), `<p:sldId id="257"`)
}

func TestAddTextBox(t *testing.T) {
	pkg := standardFixture()
	idx, err := pkg.AddBlankSlide(0)
	require.NoError(t, err)

	require.NoError(t, pkg.AddTextBox(idx, 0.4, 0.15, 9, 0.4, "Portfolio Flash Report",
		Style{Size: 20, Bold: true, Color: "003366"}))
	require.NoError(t, pkg.AddTextBox(idx, 0.4, 0.5, 9, 0.25, "line one\nline two", Style{Size: 7, Italic: true}))

	shapes, err := pkg.Shapes(idx)
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, "Portfolio Flash Report", shapes[0].Text)
	assert.InDelta(t, 0.4, shapes[0].X, 0.001)
	assert.InDelta(t, 0.15, shapes[0].Y, 0.001)
	assert.InDelta(t, 9.0, shapes[0].W, 0.001)
	assert.Equal(t, "line one\nline two", shapes[1].Text)

	data, _ := pkg.Part("ppt/slides/slide2.xml")
	assert.Contains(t, string(data), `sz="2000" b="1"`)
	assert.Contains(t, string(data), `<a:srgbClr val="003366"/>`)
	assert.Contains(t, string(data), `i="1"`)
}

func TestAddTextBox_EscapesText(t *testing.T) {
	pkg := standardFixture()
	require.NoError(t, pkg.AddTextBox(0, 1, 1, 2, 0.3, "R&D <phase 2>", Style{Size: 8}))

	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "R&D <phase 2>", shapes[3].Text)
}

func TestMoveSlide(t *testing.T) {
	pkg := standardFixture()
	_, err := pkg.DuplicateSlide(0)
	require.NoError(t, err)
	_, err = pkg.AddBlankSlide(0)
	require.NoError(t, err)

	// Slide ids 256, 257, 258; move the newest to the front.
	require.NoError(t, pkg.MoveSlide(2, 0))

	pres, _ := pkg.Part("ppt/presentation.xml")
	first := strings.Index(string(pres), `<p:sldId id="258"`)
	second := strings.Index(string(pres), `<p:sldId id="256"`)
	third := strings.Index(string(pres), `<p:sldId id="257"`)
	require.Positive(t, first)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	// Part indexes are untouched by reordering.
	assert.Equal(t, 3, pkg.SlideCount())
	shapes, err := pkg.Shapes(0)
	require.NoError(t, err)
	assert.Equal(t, "Project review :", shapes[0].Text)
}

func TestMoveSlide_OutOfRange(t *testing.T) {
	pkg := standardFixture()
	assert.Error(t, pkg.MoveSlide(0, 5))
	assert.Error(t, pkg.MoveSlide(-1, 0))
}

func TestSetShapeText_OutOfRange(t *testing.T) {
	pkg := standardFixture()
	assert.Error(t, pkg.SetShapeText(0, 99, "nope"))
	assert.Error(t, pkg.SetShapeText(5, 0, "nope"))
}
