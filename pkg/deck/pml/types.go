package pml

// Element types shared by slides, layouts and the master. Field order
// follows the schema sequence, which encoding/xml preserves.

// CommonSlideData is <p:cSld>.
type CommonSlideData struct {
	Name       string      `xml:"name,attr,omitempty"`
	Background *Background `xml:"p:bg"`
	ShapeTree  ShapeTree   `xml:"p:spTree"`
}

// Background is <p:bg>, either explicit properties or a theme reference.
type Background struct {
	Props *BackgroundProps     `xml:"p:bgPr"`
	Ref   *BackgroundReference `xml:"p:bgRef"`
}

// BackgroundProps is <p:bgPr>.
type BackgroundProps struct {
	Fill    SolidFill `xml:"a:solidFill"`
	Effects struct{}  `xml:"a:effectLst"`
}

// BackgroundReference is <p:bgRef>.
type BackgroundReference struct {
	Index  int         `xml:"idx,attr"`
	Scheme SchemeColor `xml:"a:schemeClr"`
}

// SolidFill is <a:solidFill> with an RGB color.
type SolidFill struct {
	Color RGBColor `xml:"a:srgbClr"`
}

// RGBColor is <a:srgbClr>.
type RGBColor struct {
	Val string `xml:"val,attr"`
}

// SchemeColor is <a:schemeClr>.
type SchemeColor struct {
	Val string `xml:"val,attr"`
}

func solid(rgb string) *SolidFill {
	return &SolidFill{Color: RGBColor{Val: rgb}}
}

// ShapeTree is <p:spTree>. Text shapes are written before pictures.
type ShapeTree struct {
	NonVisual  NonVisualGroupProps `xml:"p:nvGrpSpPr"`
	GroupProps GroupShapeProps     `xml:"p:grpSpPr"`
	Shapes     []Shape             `xml:"p:sp"`
	Pictures   []Picture           `xml:"p:pic"`
}

func newShapeTree() ShapeTree {
	return ShapeTree{
		NonVisual:  NonVisualGroupProps{CNvPr: NonVisualProps{ID: 1, Name: ""}},
		GroupProps: GroupShapeProps{Xfrm: &GroupTransform{}},
	}
}

// NonVisualGroupProps is <p:nvGrpSpPr>.
type NonVisualGroupProps struct {
	CNvPr      NonVisualProps `xml:"p:cNvPr"`
	CNvGrpSpPr struct{}       `xml:"p:cNvGrpSpPr"`
	NvPr       struct{}       `xml:"p:nvPr"`
}

// GroupShapeProps is <p:grpSpPr>.
type GroupShapeProps struct {
	Xfrm *GroupTransform `xml:"a:xfrm"`
}

// GroupTransform is the <a:xfrm> of a group, with child offsets.
type GroupTransform struct {
	Off   Point `xml:"a:off"`
	Ext   Size  `xml:"a:ext"`
	ChOff Point `xml:"a:chOff"`
	ChExt Size  `xml:"a:chExt"`
}

// Transform is <a:xfrm>.
type Transform struct {
	Off Point `xml:"a:off"`
	Ext Size  `xml:"a:ext"`
}

// Point is an offset in EMU.
type Point struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

// Size is an extent in EMU.
type Size struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

func transform(f Frame) *Transform {
	return &Transform{Off: Point{X: f.X, Y: f.Y}, Ext: Size{CX: f.CX, CY: f.CY}}
}

// NonVisualProps is <p:cNvPr>. Ids are unique within one slide.
type NonVisualProps struct {
	ID    uint32 `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr,omitempty"`
}

// Shape is <p:sp>.
type Shape struct {
	NonVisual NonVisualShapeProps `xml:"p:nvSpPr"`
	Props     ShapeProps          `xml:"p:spPr"`
	TextBody  *TextBody           `xml:"p:txBody"`
}

// NonVisualShapeProps is <p:nvSpPr>.
type NonVisualShapeProps struct {
	CNvPr   NonVisualProps        `xml:"p:cNvPr"`
	CNvSpPr NonVisualShapeDrawing `xml:"p:cNvSpPr"`
	NvPr    struct{}              `xml:"p:nvPr"`
}

// NonVisualShapeDrawing is <p:cNvSpPr>.
type NonVisualShapeDrawing struct {
	TxBox string `xml:"txBox,attr,omitempty"`
}

// ShapeProps is <p:spPr>.
type ShapeProps struct {
	Xfrm   *Transform     `xml:"a:xfrm"`
	Geom   PresetGeometry `xml:"a:prstGeom"`
	NoFill *struct{}      `xml:"a:noFill"`
}

// PresetGeometry is <a:prstGeom>.
type PresetGeometry struct {
	Preset string   `xml:"prst,attr"`
	AvLst  struct{} `xml:"a:avLst"`
}

// TextBody is <p:txBody>.
type TextBody struct {
	BodyProps  BodyProps   `xml:"a:bodyPr"`
	ListStyle  struct{}    `xml:"a:lstStyle"`
	Paragraphs []Paragraph `xml:"a:p"`
}

// BodyProps is <a:bodyPr>.
type BodyProps struct {
	Wrap        string    `xml:"wrap,attr,omitempty"`
	Anchor      string    `xml:"anchor,attr,omitempty"`
	RtlCol      string    `xml:"rtlCol,attr,omitempty"`
	NormAutofit *struct{} `xml:"a:normAutofit"`
}

// Paragraph is <a:p>.
type Paragraph struct {
	Props *ParagraphProps `xml:"a:pPr"`
	Runs  []Run           `xml:"a:r"`
}

// ParagraphProps is <a:pPr>.
type ParagraphProps struct {
	MarL       int64       `xml:"marL,attr,omitempty"`
	Indent     int64       `xml:"indent,attr,omitempty"`
	Align      string      `xml:"algn,attr,omitempty"`
	BulletFont *Font       `xml:"a:buFont"`
	BulletNone *struct{}   `xml:"a:buNone"`
	BulletChar *BulletChar `xml:"a:buChar"`
}

// BulletChar is <a:buChar>.
type BulletChar struct {
	Char string `xml:"char,attr"`
}

// Run is <a:r>. The text is always written, so an empty run renders as
// <a:t></a:t>.
type Run struct {
	Props RunProps `xml:"a:rPr"`
	Text  string   `xml:"a:t"`
}

// RunProps is <a:rPr>.
type RunProps struct {
	Lang  string     `xml:"lang,attr,omitempty"`
	Size  int        `xml:"sz,attr,omitempty"`
	Bold  string     `xml:"b,attr,omitempty"`
	Dirty string     `xml:"dirty,attr,omitempty"`
	Fill  *SolidFill `xml:"a:solidFill"`
	Latin *Font      `xml:"a:latin"`
}

// Font is a typeface reference (<a:latin>, <a:buFont>, ...).
type Font struct {
	Typeface string `xml:"typeface,attr"`
}

// Picture is <p:pic>.
type Picture struct {
	NonVisual NonVisualPictureProps `xml:"p:nvPicPr"`
	BlipFill  BlipFill              `xml:"p:blipFill"`
	Props     ShapeProps            `xml:"p:spPr"`
}

// NonVisualPictureProps is <p:nvPicPr>.
type NonVisualPictureProps struct {
	CNvPr    NonVisualProps `xml:"p:cNvPr"`
	CNvPicPr PictureDrawing `xml:"p:cNvPicPr"`
	NvPr     struct{}       `xml:"p:nvPr"`
}

// PictureDrawing is <p:cNvPicPr>.
type PictureDrawing struct {
	Locks PictureLocks `xml:"a:picLocks"`
}

// PictureLocks is <a:picLocks>.
type PictureLocks struct {
	NoChangeAspect string `xml:"noChangeAspect,attr,omitempty"`
}

// BlipFill is <p:blipFill>. Embed is the id of an image relationship in
// the slide's scope.
type BlipFill struct {
	Blip    Blip    `xml:"a:blip"`
	Stretch Stretch `xml:"a:stretch"`
}

// Blip is <a:blip>.
type Blip struct {
	Embed string `xml:"r:embed,attr"`
}

// Stretch is <a:stretch>.
type Stretch struct {
	FillRect struct{} `xml:"a:fillRect"`
}

// ColorMapOverride is <p:clrMapOvr>.
type ColorMapOverride struct {
	Master struct{} `xml:"a:masterClrMapping"`
}
