package pml

import (
	"encoding/xml"

	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
)

type slideMasterXML struct {
	XMLName xml.Name `xml:"p:sldMaster"`
	nsDecl
	CSld       CommonSlideData `xml:"p:cSld"`
	ColorMap   colorMap        `xml:"p:clrMap"`
	LayoutIDs  layoutIDList    `xml:"p:sldLayoutIdLst"`
	TextStyles *textStyles     `xml:"p:txStyles"`
}

type colorMap struct {
	Bg1      string `xml:"bg1,attr"`
	Tx1      string `xml:"tx1,attr"`
	Bg2      string `xml:"bg2,attr"`
	Tx2      string `xml:"tx2,attr"`
	Accent1  string `xml:"accent1,attr"`
	Accent2  string `xml:"accent2,attr"`
	Accent3  string `xml:"accent3,attr"`
	Accent4  string `xml:"accent4,attr"`
	Accent5  string `xml:"accent5,attr"`
	Accent6  string `xml:"accent6,attr"`
	Hlink    string `xml:"hlink,attr"`
	FolHlink string `xml:"folHlink,attr"`
}

var defaultColorMap = colorMap{
	Bg1: "lt1", Tx1: "dk1", Bg2: "lt2", Tx2: "dk2",
	Accent1: "accent1", Accent2: "accent2", Accent3: "accent3",
	Accent4: "accent4", Accent5: "accent5", Accent6: "accent6",
	Hlink: "hlink", FolHlink: "folHlink",
}

type layoutIDList struct {
	Layouts []masterID `xml:"p:sldLayoutId"`
}

type textStyles struct {
	Title levelList `xml:"p:titleStyle"`
	Body  levelList `xml:"p:bodyStyle"`
	Other levelList `xml:"p:otherStyle"`
}

type levelList struct {
	Level1 levelProps `xml:"a:lvl1pPr"`
}

// masterLayoutRelID is the id MasterLinks gives the layout.
const masterLayoutRelID = "rId1"

// Link is a relationship a structural part's scope must hold.
type Link struct {
	Type   string
	Target string
}

// MasterLinks lists the master's relationships in allocation order, so that
// the ids match the ones the master XML uses.
func MasterLinks() []Link {
	return []Link{
		{Type: opc.RelSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
		{Type: opc.RelTheme, Target: "../theme/theme1.xml"},
	}
}

// LayoutLinks lists the layout's relationships.
func LayoutLinks() []Link {
	return []Link{{Type: opc.RelSlideMaster, Target: "../slideMasters/slideMaster1.xml"}}
}

// RenderSlideMaster renders the single slide master. Its scope must hold
// MasterLinks in order.
func RenderSlideMaster(style Style) ([]byte, error) {
	level := func(size int, color, font string) levelList {
		return levelList{Level1: levelProps{
			Align:   "l",
			Default: defaultRunP{Size: size, Fill: solid(color), Latin: &Font{Typeface: font}},
		}}
	}
	doc := slideMasterXML{
		nsDecl: pmlNamespaces(),
		CSld: CommonSlideData{
			Background: &Background{Ref: &BackgroundReference{Index: 1001, Scheme: SchemeColor{Val: "bg1"}}},
			ShapeTree:  newShapeTree(),
		},
		ColorMap:  defaultColorMap,
		LayoutIDs: layoutIDList{Layouts: []masterID{{ID: SlideLayoutID, RelID: masterLayoutRelID}}},
		TextStyles: &textStyles{
			Title: level(style.TitleSize, style.TitleColor, style.TitleFont),
			Body:  level(style.BodySize, style.BodyColor, style.BodyFont),
			Other: level(1800, style.BodyColor, style.BodyFont),
		},
	}
	return marshalPart(doc)
}

type slideLayoutXML struct {
	XMLName xml.Name `xml:"p:sldLayout"`
	nsDecl
	Type      string           `xml:"type,attr"`
	Preserve  string           `xml:"preserve,attr"`
	CSld      CommonSlideData  `xml:"p:cSld"`
	ClrMapOvr ColorMapOverride `xml:"p:clrMapOvr"`
}

// RenderSlideLayout renders the blank layout every slide uses.
func RenderSlideLayout() ([]byte, error) {
	return marshalPart(slideLayoutXML{
		nsDecl:   pmlNamespaces(),
		Type:     "blank",
		Preserve: "1",
		CSld:     CommonSlideData{Name: "Blank", ShapeTree: newShapeTree()},
	})
}

type presPropsXML struct {
	XMLName xml.Name `xml:"p:presentationPr"`
	nsDecl
}

// RenderPresProps renders ppt/presProps.xml.
func RenderPresProps() ([]byte, error) {
	return marshalPart(presPropsXML{nsDecl: pmlNamespaces()})
}

type viewPropsXML struct {
	XMLName xml.Name `xml:"p:viewPr"`
	nsDecl
	LastView    string `xml:"lastView,attr,omitempty"`
	GridSpacing Size   `xml:"p:gridSpacing"`
}

// RenderViewProps renders ppt/viewProps.xml.
func RenderViewProps() ([]byte, error) {
	return marshalPart(viewPropsXML{
		nsDecl:      pmlNamespaces(),
		GridSpacing: Size{CX: 76200, CY: 76200},
	})
}

// defaultTableStyle is the GUID of "Medium Style 2 - Accent 1".
const defaultTableStyle = "{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"

type tableStylesXML struct {
	XMLName xml.Name `xml:"a:tblStyleLst"`
	NS      string   `xml:"xmlns:a,attr"`
	Default string   `xml:"def,attr"`
}

// RenderTableStyles renders ppt/tableStyles.xml.
func RenderTableStyles() ([]byte, error) {
	return marshalPart(tableStylesXML{NS: NamespaceDrawingML, Default: defaultTableStyle})
}
