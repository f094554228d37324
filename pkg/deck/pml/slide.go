package pml

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/benjaminschreck/go-deck/pkg/deck/media"
	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
)

// Shape ids inside a slide. Id 1 is the shape tree itself.
const (
	titleShapeID   uint32 = 2
	bodyShapeID    uint32 = 3
	pictureShapeID uint32 = 4
)

const (
	textLang = "en-US"
	bullet   = "•"
	// bulletIndent is the hanging indent of bulleted body lines.
	bulletIndent = 342900
)

// ErrScopeInUse is returned when a slide is built into a scope that already
// holds relationships.
var ErrScopeInUse = errors.New("slide scope already has relationships")

// Slide is <p:sld>.
type Slide struct {
	XMLName xml.Name `xml:"p:sld"`
	nsDecl
	CSld      CommonSlideData  `xml:"p:cSld"`
	ClrMapOvr ColorMapOverride `xml:"p:clrMapOvr"`
}

// SlideInput is everything one slide is built from.
type SlideInput struct {
	// Ordinal is the 1-based position in the deck; it names the part.
	Ordinal int
	// ID is the presentation-level slide id.
	ID        uint32
	Title     string
	BodyLines []string
	// Media is the embedded picture, nil for a text-only slide.
	Media *media.Ref
}

// SlideRecord is a built slide, ready to be added to the package.
type SlideRecord struct {
	Ordinal  int
	ID       uint32
	PartName string
	Title    string
	XML      []byte
	Media    *media.Ref
	// LayoutRelID and MediaRelID are ids in the slide's own scope.
	LayoutRelID string
	MediaRelID  string
}

// Builder renders slides in one style.
type Builder struct {
	style Style
}

// NewBuilder returns a builder for the given style.
func NewBuilder(style Style) *Builder {
	return &Builder{style: style}
}

// Style returns the builder's style.
func (b *Builder) Style() Style { return b.style }

// Build renders one slide. The scope must be the fresh relationship scope
// of SlidePartName(in.Ordinal); Build adds the layout relationship and, for
// a slide with media, the image relationship.
func (b *Builder) Build(scope *opc.Scope, in SlideInput) (*SlideRecord, error) {
	if in.Ordinal < 1 {
		return nil, fmt.Errorf("invalid slide ordinal %d", in.Ordinal)
	}
	if in.ID < MinSlideID || in.ID > MaxSlideID {
		return nil, fmt.Errorf("slide id %d outside [%d, %d]", in.ID, MinSlideID, MaxSlideID)
	}
	partName := SlidePartName(in.Ordinal)
	if scope == nil || scope.Owner() != partName {
		return nil, fmt.Errorf("slide %d needs the relationship scope of %s", in.Ordinal, partName)
	}
	if scope.Len() != 0 {
		return nil, ErrScopeInUse
	}

	rec := &SlideRecord{
		Ordinal:  in.Ordinal,
		ID:       in.ID,
		PartName: partName,
		Title:    in.Title,
		Media:    in.Media,
	}
	rec.LayoutRelID = scope.Add(opc.RelSlideLayout, "../slideLayouts/slideLayout1.xml")

	tree := newShapeTree()
	bodyFrame := b.style.BodyFrame
	if in.Media != nil {
		bodyFrame = b.style.BodyBesidePicture
	}
	tree.Shapes = []Shape{
		b.titleShape(in.Title),
		b.bodyShape(in.BodyLines, bodyFrame),
	}
	if in.Media != nil {
		rec.MediaRelID = scope.Add(opc.RelImage, "../media/"+in.Media.FileName())
		tree.Pictures = []Picture{b.picture(rec.MediaRelID, in.Title)}
	}

	slide := Slide{
		nsDecl: pmlNamespaces(),
		CSld: CommonSlideData{
			Background: b.background(),
			ShapeTree:  tree,
		},
	}
	data, err := marshalPart(slide)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", partName, err)
	}
	rec.XML = data
	return rec, nil
}

func (b *Builder) background() *Background {
	return &Background{Props: &BackgroundProps{Fill: SolidFill{Color: RGBColor{Val: b.style.Background}}}}
}

func textShape(id uint32, name string, f Frame, body *TextBody) Shape {
	return Shape{
		NonVisual: NonVisualShapeProps{
			CNvPr:   NonVisualProps{ID: id, Name: name},
			CNvSpPr: NonVisualShapeDrawing{TxBox: "1"},
		},
		Props: ShapeProps{
			Xfrm:   transform(f),
			Geom:   PresetGeometry{Preset: "rect"},
			NoFill: &struct{}{},
		},
		TextBody: body,
	}
}

func (b *Builder) titleShape(title string) Shape {
	run := Run{
		Props: RunProps{
			Lang:  textLang,
			Size:  b.style.TitleSize,
			Bold:  "1",
			Dirty: "0",
			Fill:  solid(b.style.TitleColor),
			Latin: &Font{Typeface: b.style.TitleFont},
		},
		Text: title,
	}
	body := &TextBody{
		BodyProps:  BodyProps{Wrap: "square", Anchor: "b", RtlCol: "0", NormAutofit: &struct{}{}},
		Paragraphs: []Paragraph{{Runs: []Run{run}}},
	}
	return textShape(titleShapeID, "Title 1", b.style.TitleFrame, body)
}

func (b *Builder) bodyShape(lines []string, f Frame) Shape {
	if len(lines) == 0 {
		lines = []string{""}
	}
	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, Paragraph{
			Props: b.bulletProps(line),
			Runs: []Run{{
				Props: RunProps{
					Lang:  textLang,
					Size:  b.style.BodySize,
					Dirty: "0",
					Fill:  solid(b.style.BodyColor),
					Latin: &Font{Typeface: b.style.BodyFont},
				},
				Text: line,
			}},
		})
	}
	body := &TextBody{
		BodyProps:  BodyProps{Wrap: "square", Anchor: "t", RtlCol: "0", NormAutofit: &struct{}{}},
		Paragraphs: paragraphs,
	}
	return textShape(bodyShapeID, "Content 2", f, body)
}

// bulletProps returns nil for unbulleted styles. Empty lines keep their
// paragraph but never show a bullet.
func (b *Builder) bulletProps(line string) *ParagraphProps {
	if !b.style.BodyBullets {
		return nil
	}
	if line == "" {
		return &ParagraphProps{BulletNone: &struct{}{}}
	}
	return &ParagraphProps{
		MarL:       bulletIndent,
		Indent:     -bulletIndent,
		BulletFont: &Font{Typeface: "Arial"},
		BulletChar: &BulletChar{Char: bullet},
	}
}

func (b *Builder) picture(relID, title string) Picture {
	return Picture{
		NonVisual: NonVisualPictureProps{
			CNvPr:    NonVisualProps{ID: pictureShapeID, Name: "Picture 3", Descr: title},
			CNvPicPr: PictureDrawing{Locks: PictureLocks{NoChangeAspect: "1"}},
		},
		BlipFill: BlipFill{Blip: Blip{Embed: relID}},
		Props: ShapeProps{
			Xfrm: transform(b.style.PictureFrame),
			Geom: PresetGeometry{Preset: "rect"},
		},
	}
}
