package docx

import (
	"encoding/xml"
	"strings"
)

// XML namespaces used in DOCX files.
const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsM = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    *bodyXML `xml:"body"`
}

// bodyXML holds the document body's block-level children in document
// order. Struct-tag decoding would collect paragraphs and tables into
// separate slices and lose their interleaving, so the body is decoded
// with a token walk instead.
type bodyXML struct {
	Elements []bodyElement
}

// bodyElement is one block-level child of the body: a paragraph or a
// table. Exactly one field is set.
type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

// UnmarshalXML decodes body children one by one, preserving order.
func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Space == nsW && se.Name.Local == "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &se); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Paragraph: &p})
			case se.Name.Space == nsW && se.Name.Local == "tbl":
				var t tableXML
				if err := d.DecodeElement(&t, &se); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Table: &t})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if se.Name == start.Name {
				return nil
			}
		}
	}
}

// paragraphXML represents a paragraph (<w:p>) with its inline children
// in document order. Runs, hyperlinked runs, and equations interleave,
// so the paragraph is also decoded with a token walk.
type paragraphXML struct {
	Properties paragraphPropsXML
	Children   []paraChild
}

// paraChild is one inline child of a paragraph. Exactly one field is set.
type paraChild struct {
	Run *runXML
	// Math holds an equation subtree; MathBlock marks an
	// <m:oMathPara> display equation as opposed to inline <m:oMath>.
	Math      *ommlNode
	MathBlock bool
}

// UnmarshalXML decodes paragraph children in order.
func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Space == nsW && se.Name.Local == "pPr":
				if err := d.DecodeElement(&p.Properties, &se); err != nil {
					return err
				}
			case se.Name.Space == nsW && se.Name.Local == "r":
				var r runXML
				if err := d.DecodeElement(&r, &se); err != nil {
					return err
				}
				p.Children = append(p.Children, paraChild{Run: &r})
			case se.Name.Space == nsW && se.Name.Local == "hyperlink":
				// Hyperlink targets are not representable in the model;
				// the contained runs are kept as ordinary inline content.
				var h hyperlinkXML
				if err := d.DecodeElement(&h, &se); err != nil {
					return err
				}
				for i := range h.Runs {
					p.Children = append(p.Children, paraChild{Run: &h.Runs[i]})
				}
			case se.Name.Space == nsM && se.Name.Local == "oMath":
				node, err := decodeOMMLNode(d, se)
				if err != nil {
					return err
				}
				p.Children = append(p.Children, paraChild{Math: node})
			case se.Name.Space == nsM && se.Name.Local == "oMathPara":
				node, err := decodeOMMLNode(d, se)
				if err != nil {
					return err
				}
				for _, child := range node.Children {
					if child.Name.Local == "oMath" {
						c := child
						p.Children = append(p.Children, paraChild{Math: &c, MathBlock: true})
					}
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if se.Name == start.Name {
				return nil
			}
		}
	}
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style      styleRefXML       `xml:"pStyle"`
	NumPr      numberingPropsXML `xml:"numPr"`
	OutlineLvl outlineLvlXML     `xml:"outlineLvl"`
}

// styleRefXML represents a style reference.
type styleRefXML struct {
	Val string `xml:"val,attr"`
}

// numberingPropsXML represents numbering properties for lists.
type numberingPropsXML struct {
	ILvl  valXML `xml:"ilvl"`
	NumID valXML `xml:"numId"`
}

// valXML represents a single w:val attribute holder.
type valXML struct {
	Val string `xml:"val,attr"`
}

// outlineLvlXML represents an outline level.
type outlineLvlXML struct {
	Val string `xml:"val,attr"`
}

// runAtomKind classifies the ordered pieces inside a run.
type runAtomKind int

const (
	atomText runAtomKind = iota
	atomTab
	atomBreak
	atomDrawing
)

// runAtom is one ordered piece of a run's content.
type runAtom struct {
	Kind    runAtomKind
	Text    string      // atomText
	Break   string      // atomBreak: br type attribute
	Drawing *drawingXML // atomDrawing
}

// runXML represents a text run (<w:r>) with ordered content atoms.
type runXML struct {
	Properties runPropsXML
	Atoms      []runAtom
}

// UnmarshalXML decodes run children in order, keeping text, tabs,
// breaks, and drawings interleaved as authored.
func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Space != nsW {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			switch se.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Properties, &se); err != nil {
					return err
				}
			case "t":
				var t textXML
				if err := d.DecodeElement(&t, &se); err != nil {
					return err
				}
				r.Atoms = append(r.Atoms, runAtom{Kind: atomText, Text: t.Value})
			case "tab":
				if err := d.Skip(); err != nil {
					return err
				}
				r.Atoms = append(r.Atoms, runAtom{Kind: atomTab})
			case "br":
				var brType string
				for _, a := range se.Attr {
					if a.Name.Local == "type" {
						brType = a.Value
					}
				}
				if err := d.Skip(); err != nil {
					return err
				}
				r.Atoms = append(r.Atoms, runAtom{Kind: atomBreak, Break: brType})
			case "drawing":
				var dr drawingXML
				if err := d.DecodeElement(&dr, &se); err != nil {
					return err
				}
				r.Atoms = append(r.Atoms, runAtom{Kind: atomDrawing, Drawing: &dr})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if se.Name == start.Name {
				return nil
			}
		}
	}
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Style  styleRefXML `xml:"rStyle"`
	Bold   boolXML     `xml:"b"`
	Italic boolXML     `xml:"i"`
	Fonts  fontXML     `xml:"rFonts"`
}

// boolXML represents an OOXML toggle property. The element's presence
// turns the toggle on unless w:val says otherwise.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// On reports whether the toggle is set.
func (b boolXML) On() bool {
	if b.XMLName.Local == "" {
		return false
	}
	switch b.Val {
	case "false", "0", "none":
		return false
	}
	return true
}

// fontXML represents run font settings.
type fontXML struct {
	ASCII string `xml:"ascii,attr"`
}

// textXML represents text content (<w:t>).
type textXML struct {
	Space string `xml:"space,attr"`
	Value string `xml:",chardata"`
}

// drawingXML represents an embedded drawing/image.
type drawingXML struct {
	Inline *drawingRefXML `xml:"inline"`
	Anchor *drawingRefXML `xml:"anchor"`
}

// drawingRefXML covers both inline and anchored images.
type drawingRefXML struct {
	Extent extentXML `xml:"extent"`
	DocPr  docPrXML  `xml:"docPr"`
	Blip   *blipXML  `xml:"graphic>graphicData>pic>blipFill>blip"`
}

// extentXML represents image dimensions in EMUs.
type extentXML struct {
	CX string `xml:"cx,attr"`
	CY string `xml:"cy,attr"`
}

// docPrXML carries the image's document properties, including alt text.
type docPrXML struct {
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

// blipXML references an image part through a relationship ID.
type blipXML struct {
	Embed string `xml:"embed,attr"`
}

// hyperlinkXML represents a hyperlink wrapper around runs.
type hyperlinkXML struct {
	ID   string   `xml:"id,attr"`
	Runs []runXML `xml:"r"`
}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	Grid tableGridXML  `xml:"tblGrid"`
	Rows []tableRowXML `xml:"tr"`
}

// tableGridXML represents the table grid definition.
type tableGridXML struct {
	Cols []gridColXML `xml:"gridCol"`
}

// gridColXML represents a grid column.
type gridColXML struct {
	W string `xml:"w,attr"`
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	Properties cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan valXML `xml:"gridSpan"`
}

// relationshipsXML represents word/_rels/document.xml.rels.
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML is one relationship entry.
type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// stylesXML represents word/styles.xml.
type stylesXML struct {
	XMLName xml.Name   `xml:"styles"`
	Styles  []styleXML `xml:"style"`
}

// styleXML is one style definition.
type styleXML struct {
	StyleID string `xml:"styleId,attr"`
	Name    valXML `xml:"name"`
	PPr     struct {
		OutlineLvl outlineLvlXML `xml:"outlineLvl"`
	} `xml:"pPr"`
}

// numberingXML represents word/numbering.xml.
type numberingXML struct {
	XMLName      xml.Name          `xml:"numbering"`
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numDefXML      `xml:"num"`
}

// abstractNumXML is an abstract numbering definition.
type abstractNumXML struct {
	AbstractNumID string        `xml:"abstractNumId,attr"`
	Levels        []numLevelXML `xml:"lvl"`
}

// numLevelXML is one level of an abstract numbering definition.
type numLevelXML struct {
	ILvl   string `xml:"ilvl,attr"`
	NumFmt valXML `xml:"numFmt"`
}

// numDefXML maps a concrete numId to an abstract definition.
type numDefXML struct {
	NumID         string `xml:"numId,attr"`
	AbstractNumID valXML `xml:"abstractNumId"`
}

// isMonospaceFont reports whether a font name indicates inline code.
func isMonospaceFont(name string) bool {
	switch {
	case name == "":
		return false
	case strings.HasPrefix(name, "Courier"),
		strings.HasPrefix(name, "Consolas"),
		strings.HasPrefix(name, "Menlo"),
		strings.HasPrefix(name, "Monaco"):
		return true
	}
	return false
}
