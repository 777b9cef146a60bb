package pbxproj

import (
	"bytes"
	"fmt"
	"sort"
)

// edit replaces src[start:end] with text. start == end is an insertion.
type edit struct {
	start int
	end   int
	text  string
	seq   int
}

// Patch collects byte-range edits against a source and applies them in one
// pass. Edits must not overlap; insertions at the same offset keep the order
// they were added in.
type Patch struct {
	src   []byte
	edits []edit
}

// NewPatch starts a patch against src. src is never modified.
func NewPatch(src []byte) *Patch {
	return &Patch{src: src}
}

// Replace schedules src[start:end] to be replaced by text.
func (p *Patch) Replace(start, end int, text string) {
	p.edits = append(p.edits, edit{start: start, end: end, text: text, seq: len(p.edits)})
}

// Insert schedules text to be inserted at offset pos.
func (p *Patch) Insert(pos int, text string) {
	p.Replace(pos, pos, text)
}

// Len returns the number of scheduled edits.
func (p *Patch) Len() int { return len(p.edits) }

// Covers reports whether pos lies inside a scheduled replacement.
func (p *Patch) Covers(pos int) bool {
	for _, e := range p.edits {
		if e.start < e.end && pos >= e.start && pos < e.end {
			return true
		}
	}
	return false
}

// Bytes applies the edits and returns the new text.
func (p *Patch) Bytes() ([]byte, error) {
	edits := make([]edit, len(p.edits))
	copy(edits, p.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].seq < edits[j].seq
	})

	var out bytes.Buffer
	out.Grow(len(p.src))
	last := 0
	for _, e := range edits {
		if e.start < 0 || e.end > len(p.src) || e.start > e.end {
			return nil, fmt.Errorf("edit [%d,%d) out of range", e.start, e.end)
		}
		if e.start < last {
			return nil, fmt.Errorf("edit [%d,%d) overlaps a previous edit ending at %d", e.start, e.end, last)
		}
		out.Write(p.src[last:e.start])
		out.WriteString(e.text)
		last = e.end
	}
	out.Write(p.src[last:])
	return out.Bytes(), nil
}

// LineStart returns the offset of the first byte of the line containing pos.
func LineStart(src []byte, pos int) int {
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

// LineIndent returns the leading whitespace of the line containing pos.
func LineIndent(src []byte, pos int) string {
	start := LineStart(src, pos)
	end := start
	for end < len(src) && (src[end] == '\t' || src[end] == ' ') {
		end++
	}
	return string(src[start:end])
}
