package pml

import (
	"encoding/xml"
	"time"

	"github.com/google/uuid"
)

// Document property namespaces.
const (
	namespaceCoreProps = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	namespaceDC        = "http://purl.org/dc/elements/1.1/"
	namespaceDCTerms   = "http://purl.org/dc/terms/"
	namespaceDCMIType  = "http://purl.org/dc/dcmitype/"
	namespaceXSI       = "http://www.w3.org/2001/XMLSchema-instance"
	namespaceExtended  = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	namespaceVTypes    = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
)

// Application is reported in the extended properties.
const Application = "go-deck"

// CoreProps are the Dublin Core properties of docProps/core.xml.
type CoreProps struct {
	Title      string
	Creator    string
	Identifier uuid.UUID
	Created    time.Time
}

type corePropsXML struct {
	XMLName    xml.Name    `xml:"cp:coreProperties"`
	CP         string      `xml:"xmlns:cp,attr"`
	DC         string      `xml:"xmlns:dc,attr"`
	DCTerms    string      `xml:"xmlns:dcterms,attr"`
	DCMIType   string      `xml:"xmlns:dcmitype,attr"`
	XSI        string      `xml:"xmlns:xsi,attr"`
	Title      string      `xml:"dc:title,omitempty"`
	Creator    string      `xml:"dc:creator,omitempty"`
	Identifier string      `xml:"dc:identifier,omitempty"`
	LastBy     string      `xml:"cp:lastModifiedBy,omitempty"`
	Revision   int         `xml:"cp:revision"`
	Created    w3cDateTime `xml:"dcterms:created"`
	Modified   w3cDateTime `xml:"dcterms:modified"`
}

type w3cDateTime struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

func w3cdtf(t time.Time) w3cDateTime {
	return w3cDateTime{Type: "dcterms:W3CDTF", Value: t.UTC().Format(time.RFC3339)}
}

// RenderCoreProps renders docProps/core.xml.
func RenderCoreProps(props CoreProps) ([]byte, error) {
	doc := corePropsXML{
		CP:       namespaceCoreProps,
		DC:       namespaceDC,
		DCTerms:  namespaceDCTerms,
		DCMIType: namespaceDCMIType,
		XSI:      namespaceXSI,
		Title:    props.Title,
		Creator:  props.Creator,
		LastBy:   props.Creator,
		Revision: 1,
		Created:  w3cdtf(props.Created),
		Modified: w3cdtf(props.Created),
	}
	if props.Identifier != uuid.Nil {
		doc.Identifier = props.Identifier.URN()
	}
	return marshalPart(doc)
}

// AppProps are the extended properties of docProps/app.xml.
type AppProps struct {
	Style Style
	// Titles are the slide titles in deck order.
	Titles []string
}

type appPropsXML struct {
	XMLName      xml.Name `xml:"Properties"`
	NS           string   `xml:"xmlns,attr"`
	VT           string   `xml:"xmlns:vt,attr"`
	TotalTime    int      `xml:"TotalTime"`
	Application  string   `xml:"Application"`
	Format       string   `xml:"PresentationFormat"`
	Slides       int      `xml:"Slides"`
	Notes        int      `xml:"Notes"`
	HiddenSlides int      `xml:"HiddenSlides"`
	ScaleCrop    bool     `xml:"ScaleCrop"`
	HeadingPairs vector   `xml:"HeadingPairs"`
	TitlesOfPart vector   `xml:"TitlesOfParts"`
	AppVersion   string   `xml:"AppVersion"`
}

type vector struct {
	Vector vtVector `xml:"vt:vector"`
}

type vtVector struct {
	Size     int       `xml:"size,attr"`
	BaseType string    `xml:"baseType,attr"`
	Variants []variant `xml:"vt:variant"`
	Strings  []string  `xml:"vt:lpstr"`
}

type variant struct {
	String *string `xml:"vt:lpstr"`
	Int    *int    `xml:"vt:i4"`
}

// RenderAppProps renders docProps/app.xml. The heading pairs announce one
// theme followed by the slide titles, which TitlesOfParts then lists.
func RenderAppProps(props AppProps) ([]byte, error) {
	themes, slides := 1, len(props.Titles)
	themeLabel, titlesLabel := "Theme", "Slide Titles"

	pairs := []variant{{String: &themeLabel}, {Int: &themes}}
	if slides > 0 {
		pairs = append(pairs, variant{String: &titlesLabel}, variant{Int: &slides})
	}
	titles := append([]string{props.Style.Name}, props.Titles...)

	doc := appPropsXML{
		NS:          namespaceExtended,
		VT:          namespaceVTypes,
		Application: Application,
		Format:      props.Style.Format,
		Slides:      slides,
		HeadingPairs: vector{Vector: vtVector{
			Size:     len(pairs),
			BaseType: "variant",
			Variants: pairs,
		}},
		TitlesOfPart: vector{Vector: vtVector{
			Size:     len(titles),
			BaseType: "lpstr",
			Strings:  titles,
		}},
		AppVersion: "16.0000",
	}
	return marshalPart(doc)
}
