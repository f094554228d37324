package pml

import (
	"encoding/xml"
	"fmt"
)

// SlideEntry is one <p:sldId>: the slide id and the id of the relationship
// from the presentation part to the slide.
type SlideEntry struct {
	ID    uint32 `xml:"id,attr"`
	RelID string `xml:"r:id,attr"`
}

// Presentation is the in-memory manifest behind ppt/presentation.xml. Slide
// order is the order of Append calls.
type Presentation struct {
	Style       Style
	MasterRelID string
	Slides      []SlideEntry
}

// Append adds a slide at the end of the deck.
func (p *Presentation) Append(id uint32, relID string) {
	p.Slides = append(p.Slides, SlideEntry{ID: id, RelID: relID})
}

type presentationXML struct {
	XMLName xml.Name `xml:"p:presentation"`
	nsDecl
	SaveSubsetFonts string           `xml:"saveSubsetFonts,attr,omitempty"`
	MasterIDs       masterIDList     `xml:"p:sldMasterIdLst"`
	SlideIDs        *slideIDList     `xml:"p:sldIdLst"`
	SlideSize       slideSize        `xml:"p:sldSz"`
	NotesSize       Size             `xml:"p:notesSz"`
	DefaultText     *defaultTextList `xml:"p:defaultTextStyle"`
}

type masterIDList struct {
	Masters []masterID `xml:"p:sldMasterId"`
}

type masterID struct {
	ID    uint32 `xml:"id,attr"`
	RelID string `xml:"r:id,attr"`
}

type slideIDList struct {
	Slides []SlideEntry `xml:"p:sldId"`
}

type slideSize struct {
	CX   int64  `xml:"cx,attr"`
	CY   int64  `xml:"cy,attr"`
	Type string `xml:"type,attr,omitempty"`
}

type defaultTextList struct {
	Level1 levelProps `xml:"a:lvl1pPr"`
}

type levelProps struct {
	MarL    int64       `xml:"marL,attr"`
	Align   string      `xml:"algn,attr"`
	Default defaultRunP `xml:"a:defRPr"`
}

type defaultRunP struct {
	Size  int        `xml:"sz,attr"`
	Fill  *SolidFill `xml:"a:solidFill"`
	Latin *Font      `xml:"a:latin"`
}

// Marshal renders ppt/presentation.xml. A deck without slides omits the
// slide id list entirely.
func (p *Presentation) Marshal() ([]byte, error) {
	if p.MasterRelID == "" {
		return nil, fmt.Errorf("presentation has no slide master relationship")
	}
	seen := make(map[uint32]bool, len(p.Slides))
	for _, s := range p.Slides {
		if s.ID < MinSlideID || s.ID > MaxSlideID {
			return nil, fmt.Errorf("slide id %d outside [%d, %d]", s.ID, MinSlideID, MaxSlideID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate slide id %d", s.ID)
		}
		seen[s.ID] = true
	}

	doc := presentationXML{
		nsDecl:          pmlNamespaces(),
		SaveSubsetFonts: "1",
		MasterIDs:       masterIDList{Masters: []masterID{{ID: SlideMasterID, RelID: p.MasterRelID}}},
		SlideSize:       slideSize{CX: p.Style.SlideWidth, CY: p.Style.SlideHeight, Type: p.Style.SizeType},
		// portrait letter, as office viewers expect
		NotesSize: Size{CX: 6858000, CY: 9144000},
		DefaultText: &defaultTextList{Level1: levelProps{
			Align: "l",
			Default: defaultRunP{
				Size:  1800,
				Fill:  solid(p.Style.BodyColor),
				Latin: &Font{Typeface: p.Style.BodyFont},
			},
		}},
	}
	if len(p.Slides) > 0 {
		doc.SlideIDs = &slideIDList{Slides: p.Slides}
	}
	return marshalPart(doc)
}
