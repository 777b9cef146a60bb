package pbxproj

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports malformed manifest text.
type SyntaxError struct {
	Offset int
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pbxproj syntax error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Document is a parsed manifest together with its source bytes.
type Document struct {
	Root     *Dict
	Comments []Comment
	Source   []byte
}

// ParseDocument parses a complete manifest. The top-level value must be a
// dictionary; comments before and after it are allowed.
func ParseDocument(src []byte) (*Document, error) {
	p := &parser{src: src}
	p.skip()
	if p.eof() {
		return nil, p.errorf("empty manifest")
	}
	if p.peek() != '{' {
		return nil, p.errorf("expected '{' at top level, found %q", p.peek())
	}
	root, err := p.parseDict()
	if err != nil {
		return nil, err
	}
	p.skip()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after top-level dictionary", p.peek())
	}
	return &Document{Root: root, Comments: p.comments, Source: src}, nil
}

// FindComment returns the first block comment whose trimmed text equals text.
func (d *Document) FindComment(text string) (Comment, bool) {
	for _, c := range d.Comments {
		if c.Block && c.Text == text {
			return c, true
		}
	}
	return Comment{}, false
}

type parser struct {
	src      []byte
	off      int
	comments []Comment
}

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.off] }

func (p *parser) errorf(format string, args ...any) error {
	return newSyntaxError(p.src, p.off, fmt.Sprintf(format, args...))
}

func newSyntaxError(src []byte, off int, msg string) *SyntaxError {
	if off > len(src) {
		off = len(src)
	}
	line := 1 + bytes.Count(src[:off], []byte{'\n'})
	col := off - bytes.LastIndexByte(src[:off], '\n')
	return &SyntaxError{Offset: off, Line: line, Col: col, Msg: msg}
}

// skip advances past whitespace and comments, recording the comments.
func (p *parser) skip() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.off++
		case p.hasPrefix("/*"):
			if _, ok := p.blockComment(); !ok {
				return
			}
		case p.hasPrefix("//"):
			start := p.off
			end := bytes.IndexByte(p.src[p.off:], '\n')
			if end < 0 {
				p.off = len(p.src)
			} else {
				p.off += end
			}
			p.comments = append(p.comments, Comment{
				Text: strings.TrimSpace(string(p.src[start+2 : p.off])),
				Pos:  start,
				End:  p.off,
			})
		default:
			return
		}
	}
}

func (p *parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.src[p.off:], []byte(s))
}

// blockComment consumes a /* ... */ comment at the current offset. It reports
// false and leaves the offset untouched when the comment is unterminated.
func (p *parser) blockComment() (Comment, bool) {
	start := p.off
	end := bytes.Index(p.src[start+2:], []byte("*/"))
	if end < 0 {
		return Comment{}, false
	}
	stop := start + 2 + end + 2
	c := Comment{
		Text:  strings.TrimSpace(string(p.src[start+2 : stop-2])),
		Block: true,
		Pos:   start,
		End:   stop,
	}
	p.off = stop
	p.comments = append(p.comments, c)
	return c, true
}

func (p *parser) parseValue() (Node, error) {
	p.skip()
	if p.eof() {
		return nil, p.errorf("unexpected end of input, expected a value")
	}
	switch c := p.peek(); c {
	case '{':
		return p.parseDict()
	case '(':
		return p.parseArray()
	case '"', '\'':
		return p.parseQuoted(c)
	case '<':
		return p.parseData()
	default:
		return p.parseUnquoted()
	}
}

func (p *parser) parseDict() (*Dict, error) {
	d := &Dict{Pos: p.off}
	p.off++ // '{'
	for {
		p.skip()
		if p.eof() {
			return nil, p.errorf("unterminated dictionary starting at offset %d", d.Pos)
		}
		if p.peek() == '}' {
			d.Close = p.off
			p.off++
			d.End = p.off
			return d, nil
		}

		keyNode, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		key, ok := keyNode.(*String)
		if !ok {
			start, _ := keyNode.Span()
			return nil, newSyntaxError(p.src, start, "dictionary key must be a string")
		}

		p.skip()
		if p.eof() || p.peek() != '=' {
			return nil, p.errorf("expected '=' after key %q", key.Value)
		}
		p.off++

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		p.skip()
		if p.eof() || p.peek() != ';' {
			return nil, p.errorf("expected ';' after value of %q", key.Value)
		}
		p.off++
		d.Entries = append(d.Entries, &Entry{Key: key, Value: value, End: p.off})
	}
}

func (p *parser) parseArray() (*Array, error) {
	a := &Array{Pos: p.off}
	p.off++ // '('
	for {
		p.skip()
		if p.eof() {
			return nil, p.errorf("unterminated array starting at offset %d", a.Pos)
		}
		if p.peek() == ')' {
			a.Close = p.off
			p.off++
			a.End = p.off
			return a, nil
		}

		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		a.Items = append(a.Items, item)

		p.skip()
		if p.eof() {
			return nil, p.errorf("unterminated array starting at offset %d", a.Pos)
		}
		switch p.peek() {
		case ',':
			p.off++
		case ')':
		default:
			return nil, p.errorf("expected ',' or ')' in array, found %q", p.peek())
		}
	}
}

func isUnquotedByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '{', '}', '(', ')', '=', ';', ',', '"', '\'', '<', '>':
		return false
	}
	return true
}

func (p *parser) parseUnquoted() (*String, error) {
	start := p.off
	for !p.eof() && isUnquotedByte(p.peek()) {
		if p.hasPrefix("/*") || p.hasPrefix("//") {
			break
		}
		p.off++
	}
	if p.off == start {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	s := &String{Value: string(p.src[start:p.off]), Pos: start, End: p.off}
	p.attachComment(s)
	return s, nil
}

func (p *parser) parseQuoted(quote byte) (*String, error) {
	start := p.off
	p.off++
	var b strings.Builder
	for {
		if p.eof() {
			return nil, newSyntaxError(p.src, start, "unterminated quoted string")
		}
		c := p.peek()
		if c == quote {
			p.off++
			break
		}
		if c != '\\' {
			b.WriteByte(c)
			p.off++
			continue
		}
		p.off++
		if p.eof() {
			return nil, newSyntaxError(p.src, start, "unterminated escape in quoted string")
		}
		if err := p.unescape(&b); err != nil {
			return nil, err
		}
	}
	s := &String{Value: b.String(), Quoted: true, Pos: start, End: p.off}
	p.attachComment(s)
	return s, nil
}

// unescape decodes the escape sequence following a backslash.
func (p *parser) unescape(b *strings.Builder) error {
	c := p.peek()
	p.off++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case 'U', 'u':
		if p.off+4 > len(p.src) {
			return p.errorf("short unicode escape")
		}
		r, err := strconv.ParseUint(string(p.src[p.off:p.off+4]), 16, 32)
		if err != nil {
			return p.errorf("invalid unicode escape %q", p.src[p.off:p.off+4])
		}
		p.off += 4
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], rune(r))
		b.Write(buf[:n])
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2 && !p.eof() && p.peek() >= '0' && p.peek() <= '7'; i++ {
			v = v*8 + int(p.peek()-'0')
			p.off++
		}
		b.WriteByte(byte(v))
	default:
		// \\, \" and \' and anything unknown decode to the literal byte
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) parseData() (*String, error) {
	start := p.off
	end := bytes.IndexByte(p.src[start:], '>')
	if end < 0 {
		return nil, p.errorf("unterminated data literal")
	}
	p.off = start + end + 1
	return &String{Value: string(p.src[start:p.off]), Pos: start, End: p.off}, nil
}

// attachComment binds a block comment on the same line directly after s.
func (p *parser) attachComment(s *String) {
	i := p.off
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	if !bytes.HasPrefix(p.src[i:], []byte("/*")) {
		return
	}
	saved := p.off
	p.off = i
	c, ok := p.blockComment()
	if !ok {
		p.off = saved
		return
	}
	s.Comment = c.Text
	s.HasComment = true
	s.CommentPos = c.Pos
	s.CommentEnd = c.End
}
