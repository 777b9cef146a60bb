// Package pbxproj parses Xcode project manifests (project.pbxproj) written in
// the OpenStep property-list dialect that Xcode emits.
//
// Every parsed node remembers the byte range it occupies in the source, so
// callers can rewrite a manifest by patching exact spans (see Patch) instead of
// re-serializing the whole tree. Bytes outside the patched spans are preserved
// exactly, which keeps diffs small and leaves Xcode's formatting untouched.
package pbxproj

// Node is one value in the manifest: *Dict, *Array or *String.
type Node interface {
	// Span returns the byte offsets [start, end) of the node in the source.
	// For strings this excludes any trailing comment.
	Span() (start, end int)
}

// String is a scalar, quoted or not. Object identifiers are unquoted strings,
// and Xcode follows each reference with a /* display label */ comment which is
// kept in Comment.
type String struct {
	Value  string
	Quoted bool
	Pos    int
	End    int

	// Comment is the text of a block comment that directly follows the
	// string, trimmed. HasComment distinguishes "/**/" from no comment.
	Comment    string
	HasComment bool
	CommentPos int
	CommentEnd int
}

// Span implements Node.
func (s *String) Span() (int, int) { return s.Pos, s.End }

// Label returns the display comment if present.
func (s *String) Label() string { return s.Comment }

// Array is a parenthesised list. Close is the offset of the ')' byte.
type Array struct {
	Items []Node
	Pos   int
	End   int
	Close int
}

// Span implements Node.
func (a *Array) Span() (int, int) { return a.Pos, a.End }

// Strings returns the string items of the array, skipping nested containers.
func (a *Array) Strings() []*String {
	out := make([]*String, 0, len(a.Items))
	for _, item := range a.Items {
		if s, ok := item.(*String); ok {
			out = append(out, s)
		}
	}
	return out
}

// Entry is one `key = value;` pair inside a dictionary.
type Entry struct {
	Key   *String
	Value Node
	// End is the offset just past the terminating ';'.
	End int
}

// Dict is a brace-delimited dictionary. Entry order follows the source.
type Dict struct {
	Entries []*Entry
	Pos     int
	End     int
	Close   int

	index map[string]*Entry
}

// Span implements Node.
func (d *Dict) Span() (int, int) { return d.Pos, d.End }

// Lookup returns the entry for key.
func (d *Dict) Lookup(key string) (*Entry, bool) {
	if d.index == nil {
		d.index = make(map[string]*Entry, len(d.Entries))
		for _, e := range d.Entries {
			// first occurrence wins, matching how Xcode reads duplicates
			if _, ok := d.index[e.Key.Value]; !ok {
				d.index[e.Key.Value] = e
			}
		}
	}
	e, ok := d.index[key]
	return e, ok
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Node, bool) {
	e, ok := d.Lookup(key)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// String returns the string node stored under key.
func (d *Dict) String(key string) (*String, bool) {
	n, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := n.(*String)
	return s, ok
}

// Value returns the string value stored under key, or "".
func (d *Dict) Value(key string) string {
	if s, ok := d.String(key); ok {
		return s.Value
	}
	return ""
}

// Array returns the array stored under key.
func (d *Dict) Array(key string) (*Array, bool) {
	n, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := n.(*Array)
	return a, ok
}

// Dict returns the dictionary stored under key.
func (d *Dict) Dict(key string) (*Dict, bool) {
	n, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := n.(*Dict)
	return sub, ok
}

// Comment is a comment found anywhere in the source, including the section
// markers such as "/* End PBXGroup section */".
type Comment struct {
	Text  string
	Block bool
	Pos   int
	End   int
}

// Walk calls fn for n and every node beneath it, depth first, in source order.
// Dictionary keys are visited before their values.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch v := n.(type) {
	case *Dict:
		for _, e := range v.Entries {
			fn(e.Key)
			Walk(e.Value, fn)
		}
	case *Array:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	}
}
