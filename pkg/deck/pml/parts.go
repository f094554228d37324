package pml

import (
	"encoding/xml"
	"fmt"

	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
)

// XML namespaces
const (
	NamespaceDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespacePresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

// Content types of the parts rendered by this package.
const (
	ContentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ContentTypeSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ContentTypeSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ContentTypeSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ContentTypeTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ContentTypePresProps    = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
	ContentTypeViewProps    = "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"
	ContentTypeTableStyles  = "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"

	// PackageContentType is the MIME type of a finished .pptx archive.
	PackageContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Fixed part names.
const (
	PresentationPart = "ppt/presentation.xml"
	SlideMasterPart  = "ppt/slideMasters/slideMaster1.xml"
	SlideLayoutPart  = "ppt/slideLayouts/slideLayout1.xml"
	ThemePart        = "ppt/theme/theme1.xml"
	PresPropsPart    = "ppt/presProps.xml"
	ViewPropsPart    = "ppt/viewProps.xml"
	TableStylesPart  = "ppt/tableStyles.xml"
	CorePropsPart    = "docProps/core.xml"
	AppPropsPart     = "docProps/app.xml"
	ThumbnailPart    = "docProps/thumbnail.jpeg"
)

// Identifier ranges. Slide ids live in [MinSlideID, MaxSlideID]; master and
// layout ids start at 2^31 and share one sequence.
const (
	MinSlideID    uint32 = 256
	MaxSlideID    uint32 = 2147483647
	SlideMasterID uint32 = 2147483648
	SlideLayoutID uint32 = 2147483649
)

// SlidePartName returns the archive name of the slide at a 1-based ordinal.
func SlidePartName(ordinal int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", ordinal)
}

// nsDecl is embedded in every PresentationML root element.
type nsDecl struct {
	A string `xml:"xmlns:a,attr"`
	R string `xml:"xmlns:r,attr"`
	P string `xml:"xmlns:p,attr"`
}

func pmlNamespaces() nsDecl {
	return nsDecl{A: NamespaceDrawingML, R: NamespaceRelationships, P: NamespacePresentation}
}

// marshalPart encodes a root element with the standalone XML declaration.
func marshalPart(v any) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(opc.XMLHeader)+len(body))
	out = append(out, opc.XMLHeader...)
	return append(out, body...), nil
}
