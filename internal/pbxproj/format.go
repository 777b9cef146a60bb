package pbxproj

import (
	"strings"
)

// Quote renders s the way Xcode writes string values: bare when it only uses
// safe characters, double-quoted and escaped otherwise.
func Quote(s string) string {
	if s != "" && !needsQuotes(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuotes(s string) bool {
	if strings.Contains(s, "//") || strings.Contains(s, "___") {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '$', c == '/', c == ':', c == '.':
		default:
			return true
		}
	}
	return false
}

// FormatComment renders a display label as a block comment. A "*/" inside the
// label would end the comment early, so it is defused.
func FormatComment(label string) string {
	return "/* " + strings.ReplaceAll(label, "*/", "* /") + " */"
}

// Ref renders an object reference followed by its display label.
func Ref(id, label string) string {
	if label == "" {
		return id
	}
	return id + " " + FormatComment(label)
}

// Child is one reference in a children list.
type Child struct {
	ID    string
	Label string
}

// FormatChildren renders a children array. indent is the indentation of the
// line holding the "children" key; items are nested one tab deeper.
func FormatChildren(children []Child, indent string) string {
	var b strings.Builder
	b.WriteString("(\n")
	for _, c := range children {
		b.WriteString(indent)
		b.WriteString("\t")
		b.WriteString(Ref(c.ID, c.Label))
		b.WriteString(",\n")
	}
	b.WriteString(indent)
	b.WriteString(")")
	return b.String()
}

// GroupDef describes a PBXGroup to be written into the objects table.
type GroupDef struct {
	ID       string
	Name     string
	Path     string
	Children []Child
}

// FormatGroup renders a complete PBXGroup object definition, including the
// trailing newline. indent is the indentation of the object key, two tabs in
// files written by Xcode.
func FormatGroup(g GroupDef, indent string) string {
	inner := indent + "\t"
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(Ref(g.ID, g.Name))
	b.WriteString(" = {\n")
	b.WriteString(inner + "isa = " + ISAGroup + ";\n")
	b.WriteString(inner + "children = " + FormatChildren(g.Children, inner) + ";\n")
	if g.Path != "" {
		b.WriteString(inner + "path = " + Quote(g.Path) + ";\n")
	}
	if g.Name != "" && g.Name != g.Path {
		b.WriteString(inner + "name = " + Quote(g.Name) + ";\n")
	}
	b.WriteString(inner + "sourceTree = " + Quote("<group>") + ";\n")
	b.WriteString(indent + "};\n")
	return b.String()
}
