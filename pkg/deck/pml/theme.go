package pml

import "encoding/xml"

type themeXML struct {
	XMLName  xml.Name      `xml:"a:theme"`
	NS       string        `xml:"xmlns:a,attr"`
	Name     string        `xml:"name,attr"`
	Elements themeElements `xml:"a:themeElements"`
	Defaults struct{}      `xml:"a:objectDefaults"`
	Extra    struct{}      `xml:"a:extraClrSchemeLst"`
}

type themeElements struct {
	Colors  colorScheme  `xml:"a:clrScheme"`
	Fonts   fontScheme   `xml:"a:fontScheme"`
	Formats formatScheme `xml:"a:fmtScheme"`
}

type colorScheme struct {
	Name     string     `xml:"name,attr"`
	Dark1    themeColor `xml:"a:dk1"`
	Light1   themeColor `xml:"a:lt1"`
	Dark2    themeColor `xml:"a:dk2"`
	Light2   themeColor `xml:"a:lt2"`
	Accent1  themeColor `xml:"a:accent1"`
	Accent2  themeColor `xml:"a:accent2"`
	Accent3  themeColor `xml:"a:accent3"`
	Accent4  themeColor `xml:"a:accent4"`
	Accent5  themeColor `xml:"a:accent5"`
	Accent6  themeColor `xml:"a:accent6"`
	Hlink    themeColor `xml:"a:hlink"`
	FolHlink themeColor `xml:"a:folHlink"`
}

type themeColor struct {
	RGB RGBColor `xml:"a:srgbClr"`
}

func rgb(val string) themeColor { return themeColor{RGB: RGBColor{Val: val}} }

type fontScheme struct {
	Name  string        `xml:"name,attr"`
	Major themeFontList `xml:"a:majorFont"`
	Minor themeFontList `xml:"a:minorFont"`
}

type themeFontList struct {
	Latin Font `xml:"a:latin"`
	EA    Font `xml:"a:ea"`
	CS    Font `xml:"a:cs"`
}

type formatScheme struct {
	Name    string     `xml:"name,attr"`
	Fills   fillList   `xml:"a:fillStyleLst"`
	Lines   lineList   `xml:"a:lnStyleLst"`
	Effects effectList `xml:"a:effectStyleLst"`
	BgFills fillList   `xml:"a:bgFillStyleLst"`
}

type fillList struct {
	Fills []phFill `xml:"a:solidFill"`
}

// phFill is a solid fill of the placeholder color.
type phFill struct {
	Color SchemeColor `xml:"a:schemeClr"`
}

type lineList struct {
	Lines []line `xml:"a:ln"`
}

type line struct {
	Width int64  `xml:"w,attr"`
	Cap   string `xml:"cap,attr"`
	Cmpd  string `xml:"cmpd,attr"`
	Algn  string `xml:"algn,attr"`
	Fill  phFill `xml:"a:solidFill"`
	Dash  preset `xml:"a:prstDash"`
	Miter struct {
		Limit int `xml:"lim,attr"`
	} `xml:"a:miter"`
}

type preset struct {
	Val string `xml:"val,attr"`
}

type effectList struct {
	Styles []effectStyle `xml:"a:effectStyle"`
}

type effectStyle struct {
	Effects struct{} `xml:"a:effectLst"`
}

func triple[T any](v T) []T { return []T{v, v, v} }

// RenderTheme renders ppt/theme/theme1.xml. The style's colors and fonts
// become the theme's scheme so that slides inserted later by a user match
// the generated ones.
func RenderTheme(style Style) ([]byte, error) {
	fonts := func(face string) themeFontList {
		return themeFontList{Latin: Font{Typeface: face}, EA: Font{}, CS: Font{}}
	}
	ph := phFill{Color: SchemeColor{Val: "phClr"}}
	ln := func(w int64) line {
		l := line{Width: w, Cap: "flat", Cmpd: "sng", Algn: "ctr", Fill: ph, Dash: preset{Val: "solid"}}
		l.Miter.Limit = 800000
		return l
	}

	doc := themeXML{
		NS:   NamespaceDrawingML,
		Name: style.Name,
		Elements: themeElements{
			Colors: colorScheme{
				Name:     style.Name,
				Dark1:    rgb(style.TitleColor),
				Light1:   rgb(style.Background),
				Dark2:    rgb(style.BodyColor),
				Light2:   rgb("E7E6E6"),
				Accent1:  rgb(style.Accent),
				Accent2:  rgb("ED7D31"),
				Accent3:  rgb("A5A5A5"),
				Accent4:  rgb("FFC000"),
				Accent5:  rgb("5B9BD5"),
				Accent6:  rgb("70AD47"),
				Hlink:    rgb("0563C1"),
				FolHlink: rgb("954F72"),
			},
			Fonts: fontScheme{
				Name:  style.Name,
				Major: fonts(style.TitleFont),
				Minor: fonts(style.BodyFont),
			},
			Formats: formatScheme{
				Name:    style.Name,
				Fills:   fillList{Fills: triple(ph)},
				Lines:   lineList{Lines: []line{ln(6350), ln(12700), ln(19050)}},
				Effects: effectList{Styles: triple(effectStyle{})},
				BgFills: fillList{Fills: triple(ph)},
			},
		},
	}
	return marshalPart(doc)
}
