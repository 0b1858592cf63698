package docx

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// ommlNode is a generic element tree for Office Math Markup subtrees.
// Equations are captured whole during document decoding and transcoded
// to LaTeX afterwards.
type ommlNode struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []ommlNode
	Text     string
}

// decodeOMMLNode captures the element started by start and its whole
// subtree as a node tree.
func decodeOMMLNode(d *xml.Decoder, start xml.StartElement) (*ommlNode, error) {
	node := &ommlNode{Name: start.Name, Attrs: start.Attr}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeOMMLNode(d, t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, *child)
		case xml.CharData:
			node.Text += string(t)
		case xml.EndElement:
			if t.Name == start.Name {
				return node, nil
			}
		}
	}
}

// child returns the first child element with the given local name in
// the math namespace, or nil.
func (n *ommlNode) child(local string) *ommlNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.Name.Space == nsM && c.Name.Local == local {
			return c
		}
	}
	return nil
}

// attr returns the w:val-style attribute value of the named math-
// namespace child element, or "" when absent.
func (n *ommlNode) attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// plainText collects all m:t text in the subtree, in document order.
func (n *ommlNode) plainText() string {
	if n.Name.Space == nsM && n.Name.Local == "t" {
		return n.Text
	}
	var b strings.Builder
	for i := range n.Children {
		b.WriteString(n.Children[i].plainText())
	}
	return b.String()
}

// mathSymbols maps Unicode math characters appearing in equation text
// to their LaTeX commands.
var mathSymbols = map[rune]string{
	'α': `\alpha`, 'β': `\beta`, 'γ': `\gamma`, 'δ': `\delta`,
	'ε': `\epsilon`, 'ζ': `\zeta`, 'η': `\eta`, 'θ': `\theta`,
	'ι': `\iota`, 'κ': `\kappa`, 'λ': `\lambda`, 'μ': `\mu`,
	'ν': `\nu`, 'ξ': `\xi`, 'π': `\pi`, 'ρ': `\rho`,
	'σ': `\sigma`, 'τ': `\tau`, 'υ': `\upsilon`, 'φ': `\phi`,
	'χ': `\chi`, 'ψ': `\psi`, 'ω': `\omega`,
	'Γ': `\Gamma`, 'Δ': `\Delta`, 'Θ': `\Theta`, 'Λ': `\Lambda`,
	'Ξ': `\Xi`, 'Π': `\Pi`, 'Σ': `\Sigma`, 'Υ': `\Upsilon`,
	'Φ': `\Phi`, 'Ψ': `\Psi`, 'Ω': `\Omega`,
	'∑': `\sum`, '∏': `\prod`, '∫': `\int`, '√': `\sqrt`,
	'∞': `\infty`, '∂': `\partial`, '∇': `\nabla`,
	'±': `\pm`, '∓': `\mp`, '×': `\times`, '÷': `\div`,
	'·': `\cdot`, '≤': `\leq`, '≥': `\geq`, '≠': `\neq`,
	'≈': `\approx`, '≡': `\equiv`, '∝': `\propto`,
	'∈': `\in`, '∉': `\notin`, '⊂': `\subset`, '⊆': `\subseteq`,
	'∪': `\cup`, '∩': `\cap`, '∅': `\emptyset`,
	'→': `\rightarrow`, '←': `\leftarrow`, '⇒': `\Rightarrow`,
	'⇐': `\Leftarrow`, '↔': `\leftrightarrow`, '⇔': `\Leftrightarrow`,
	'∀': `\forall`, '∃': `\exists`, '¬': `\neg`,
	'∧': `\wedge`, '∨': `\vee`, '⊕': `\oplus`, '⊗': `\otimes`,
	'°': `^\circ`, '′': `'`, '″': `''`,
	'¹': `^1`, '²': `^2`, '³': `^3`,
	'₀': `_0`, '₁': `_1`, '₂': `_2`, '₃': `_3`, '₄': `_4`,
}

// narySymbols maps n-ary operator characters to LaTeX large operators.
var narySymbols = map[string]string{
	"∑": `\sum`, "∏": `\prod`, "∐": `\coprod`,
	"∫": `\int`, "∬": `\iint`, "∭": `\iiint`, "∮": `\oint`,
	"⋃": `\bigcup`, "⋂": `\bigcap`,
	"⋁": `\bigvee`, "⋀": `\bigwedge`,
}

// transcodeOMML converts a captured equation subtree to LaTeX. It
// returns a *FormulaError when the subtree contains a construct outside
// the mapping table.
func transcodeOMML(n *ommlNode) (string, error) {
	var b strings.Builder
	for i := range n.Children {
		s, err := transcodeNode(&n.Children[i])
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return strings.TrimSpace(b.String()), nil
}

func transcodeChildren(n *ommlNode) (string, error) {
	var b strings.Builder
	for i := range n.Children {
		s, err := transcodeNode(&n.Children[i])
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// transcodeElement transcodes the named math child of n, or returns ""
// when the child is absent.
func transcodeElement(n *ommlNode, local string) (string, error) {
	c := n.child(local)
	if c == nil {
		return "", nil
	}
	return transcodeChildren(c)
}

// braced wraps s in LaTeX braces unless it is already a single token.
func braced(s string) string {
	if len(s) == 1 {
		return s
	}
	return "{" + s + "}"
}

func transcodeNode(n *ommlNode) (string, error) {
	if n.Name.Space != nsM {
		// Runs inside equations may carry w:rPr; non-math elements
		// contribute nothing themselves.
		return transcodeChildren(n)
	}

	switch n.Name.Local {
	case "r", "e", "oMath", "den", "num", "sub", "sup", "fName", "deg", "lim":
		return transcodeChildren(n)

	case "t":
		return transcodeMathText(n.Text), nil

	case "rPr", "ctrlPr", "argPr":
		return "", nil

	case "f":
		num, err := transcodeElement(n, "num")
		if err != nil {
			return "", err
		}
		den, err := transcodeElement(n, "den")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`\frac{%s}{%s}`, num, den), nil

	case "sSup":
		base, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		sup, err := transcodeElement(n, "sup")
		if err != nil {
			return "", err
		}
		return base + "^" + braced(sup), nil

	case "sSub":
		base, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		sub, err := transcodeElement(n, "sub")
		if err != nil {
			return "", err
		}
		return base + "_" + braced(sub), nil

	case "sSubSup":
		base, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		sub, err := transcodeElement(n, "sub")
		if err != nil {
			return "", err
		}
		sup, err := transcodeElement(n, "sup")
		if err != nil {
			return "", err
		}
		return base + "_" + braced(sub) + "^" + braced(sup), nil

	case "rad":
		deg, err := transcodeElement(n, "deg")
		if err != nil {
			return "", err
		}
		body, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		if deg == "" {
			return fmt.Sprintf(`\sqrt{%s}`, body), nil
		}
		return fmt.Sprintf(`\sqrt[%s]{%s}`, deg, body), nil

	case "nary":
		op := `\int`
		if pr := n.child("naryPr"); pr != nil {
			if chr := pr.child("chr"); chr != nil {
				glyph := chr.attr("val")
				mapped, ok := narySymbols[glyph]
				if !ok {
					return "", &FormulaError{Construct: "m:nary chr " + glyph}
				}
				op = mapped
			}
		}
		sub, err := transcodeElement(n, "sub")
		if err != nil {
			return "", err
		}
		sup, err := transcodeElement(n, "sup")
		if err != nil {
			return "", err
		}
		body, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(op)
		if sub != "" {
			b.WriteString("_" + braced(sub))
		}
		if sup != "" {
			b.WriteString("^" + braced(sup))
		}
		b.WriteString(" " + body)
		return b.String(), nil

	case "d":
		beg, end := "(", ")"
		if pr := n.child("dPr"); pr != nil {
			if c := pr.child("begChr"); c != nil {
				beg = c.attr("val")
			}
			if c := pr.child("endChr"); c != nil {
				end = c.attr("val")
			}
		}
		var parts []string
		for i := range n.Children {
			c := &n.Children[i]
			if c.Name.Space == nsM && c.Name.Local == "e" {
				s, err := transcodeChildren(c)
				if err != nil {
					return "", err
				}
				parts = append(parts, s)
			}
		}
		return fmt.Sprintf(`\left%s%s\right%s`,
			delimChar(beg), strings.Join(parts, ","), delimChar(end)), nil

	case "func":
		name, err := transcodeElement(n, "fName")
		if err != nil {
			return "", err
		}
		arg, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		if fn, ok := knownFunctions[name]; ok {
			name = fn
		}
		return name + " " + arg, nil

	case "limLow":
		base, err := transcodeElement(n, "e")
		if err != nil {
			return "", err
		}
		lim, err := transcodeElement(n, "lim")
		if err != nil {
			return "", err
		}
		return base + "_" + braced(lim), nil

	default:
		return "", &FormulaError{Construct: "m:" + n.Name.Local}
	}
}

// knownFunctions maps function names appearing in m:fName to their
// LaTeX operator commands.
var knownFunctions = map[string]string{
	"sin": `\sin`, "cos": `\cos`, "tan": `\tan`,
	"sinh": `\sinh`, "cosh": `\cosh`, "tanh": `\tanh`,
	"log": `\log`, "ln": `\ln`, "exp": `\exp`,
	"lim": `\lim`, "min": `\min`, "max": `\max`,
}

// delimChar adapts a delimiter character for use after \left or
// \right. Braces must be escaped; an empty delimiter becomes ".".
func delimChar(s string) string {
	switch s {
	case "":
		return "."
	case "{":
		return `\{`
	case "}":
		return `\}`
	case "|":
		return "|"
	default:
		return s
	}
}

// transcodeMathText maps Unicode math characters in equation text to
// LaTeX commands, leaving ASCII untouched.
func transcodeMathText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if cmd, ok := mathSymbols[r]; ok {
			b.WriteString(cmd + " ")
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// mathSymbolRuns splits plain run text at Unicode math characters so
// symbols like π or ≤ outside equations still render as inline math.
// Returns nil when the text contains no math characters.
func mathSymbolRuns(s string) []mathRun {
	has := false
	for _, r := range s {
		if _, ok := mathSymbols[r]; ok {
			has = true
			break
		}
	}
	if !has {
		return nil
	}
	var runs []mathRun
	var text strings.Builder
	for _, r := range s {
		if cmd, ok := mathSymbols[r]; ok {
			if text.Len() > 0 {
				runs = append(runs, mathRun{Text: text.String()})
				text.Reset()
			}
			runs = append(runs, mathRun{LaTeX: cmd, IsMath: true})
			continue
		}
		text.WriteRune(r)
	}
	if text.Len() > 0 {
		runs = append(runs, mathRun{Text: text.String()})
	}
	return runs
}

// mathRun is one segment of run text split at math symbols.
type mathRun struct {
	Text   string
	LaTeX  string
	IsMath bool
}
