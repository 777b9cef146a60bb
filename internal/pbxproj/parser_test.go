package pbxproj

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "project.pbxproj"))
	require.NoError(t, err)
	return data
}

func TestParseDocumentFixture(t *testing.T) {
	src := loadFixture(t)

	doc, err := ParseDocument(src)
	require.NoError(t, err)

	objects, ok := doc.Root.Dict("objects")
	require.True(t, ok, "objects dictionary missing")
	assert.Len(t, objects.Entries, 17)
	assert.Equal(t, "D8D9E5A02A8064A000E295FA", doc.Root.Value("rootObject"))

	core, ok := objects.Lookup("D8D9E5BB2A8064A000E295FA")
	require.True(t, ok)
	assert.Equal(t, "Core", core.Key.Comment)

	group := core.Value.(*Dict)
	children, ok := group.Array("children")
	require.True(t, ok)
	require.Len(t, children.Items, 5)

	first := children.Strings()[0]
	assert.Equal(t, "D8D9E5CD2A8403D300E295FA", first.Value)
	assert.Equal(t, "BBSystemConstants.swift", first.Comment)
	assert.Equal(t, "D8D9E5CD2A8403D300E295FA", string(src[first.Pos:first.End]))
	assert.Equal(t, "/* BBSystemConstants.swift */", string(src[first.CommentPos:first.CommentEnd]))

	assert.Equal(t, byte('('), src[children.Pos])
	assert.Equal(t, byte(')'), src[children.Close])
	assert.Equal(t, children.Close+1, children.End)
}

func TestParseDocumentRecordsSectionMarkers(t *testing.T) {
	src := loadFixture(t)
	doc, err := ParseDocument(src)
	require.NoError(t, err)

	marker, ok := doc.FindComment(GroupSectionEndMarker)
	require.True(t, ok)
	assert.Equal(t, "/* End PBXGroup section */", string(src[marker.Pos:marker.End]))

	require.NotEmpty(t, doc.Comments)
	assert.False(t, doc.Comments[0].Block)
	assert.Equal(t, "!$*UTF8*$!", doc.Comments[0].Text)
}

func TestParseQuotedStrings(t *testing.T) {
	src := []byte(`{ a = "x\"y\\z\n"; b = "\U00e9té"; c = "BatteryBoi (iOS)"; d = ""; e = 'single'; }`)

	doc, err := ParseDocument(src)
	require.NoError(t, err)

	assert.Equal(t, "x\"y\\z\n", doc.Root.Value("a"))
	assert.Equal(t, "été", doc.Root.Value("b"))

	c, ok := doc.Root.String("c")
	require.True(t, ok)
	assert.True(t, c.Quoted)
	assert.Equal(t, "BatteryBoi (iOS)", c.Value)
	assert.Equal(t, `"BatteryBoi (iOS)"`, string(src[c.Pos:c.End]))

	d, ok := doc.Root.String("d")
	require.True(t, ok)
	assert.Equal(t, "", d.Value)
	assert.Equal(t, "single", doc.Root.Value("e"))
}

func TestParseArrays(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "trailing comma", src: `{ a = (x, y, ); }`, want: []string{"x", "y"}},
		{name: "no trailing comma", src: `{ a = ( x, y ); }`, want: []string{"x", "y"}},
		{name: "empty", src: `{ a = ( ); }`, want: nil},
		{name: "with comments", src: "{ a = (\n\tx /* X */,\n\ty /* Y */,\n); }", want: []string{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.src))
			require.NoError(t, err)
			arr, ok := doc.Root.Array("a")
			require.True(t, ok)
			var got []string
			for _, s := range arr.Strings() {
				got = append(got, s.Value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommentOnNextLineIsNotALabel(t *testing.T) {
	src := []byte("{\n\ta = b;\n/* section */\n\tc = d /* D */;\n}")
	doc, err := ParseDocument(src)
	require.NoError(t, err)

	a, _ := doc.Root.String("a")
	assert.False(t, a.HasComment)

	c, _ := doc.Root.String("c")
	assert.True(t, c.HasComment)
	assert.Equal(t, "D", c.Comment)

	_, ok := doc.FindComment("section")
	assert.True(t, ok)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: ""},
		{name: "only comment", src: "// !$*UTF8*$!\n"},
		{name: "top level array", src: "(a, b)"},
		{name: "missing semicolon", src: "{\n\ta = b\n}"},
		{name: "missing equals", src: "{ a b; }"},
		{name: "unterminated dict", src: "{ a = b;"},
		{name: "unterminated array", src: "{ a = (b, c; }"},
		{name: "unterminated string", src: `{ a = "b; }`},
		{name: "trailing garbage", src: "{ } x"},
		{name: "dict key", src: "{ { } = b; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.src))
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.True(t, errors.As(err, &syntaxErr), "want *SyntaxError, got %T", err)
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := ParseDocument([]byte("{\n\ta = b\n}"))
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 3, syntaxErr.Line)
	assert.Equal(t, 1, syntaxErr.Col)
	assert.Contains(t, syntaxErr.Error(), "line 3")
}
