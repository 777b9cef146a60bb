package restructure

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/bbtool/internal/pbxproj"
)

const (
	coreID          = "D8D9E5BB2A8064A000E295FA"
	productsID      = "D8D9E5A22A8064A000E295FA"
	appManagerID    = "D8D9E5CA2A8403D300E295FA"
	windowID        = "D8D9E5CB2A8403D300E295FA"
	batteryID       = "D8D9E5CC2A8403D300E295FA"
	systemConstID   = "D8D9E5CD2A8403D300E295FA"
	batteryConstID  = "D8D9E5CE2A8403D300E295FA"
	existingAppID   = "D8D9E5F02A8403D300E295FA"
	firstNewGroupID = "F00000000000000000000001"
	secondGroupID   = "F00000000000000000000002"
)

func fixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "project.pbxproj"))
	require.NoError(t, err)
	return string(data)
}

func parse(t *testing.T, src string) *pbxproj.Project {
	t.Helper()
	p, err := pbxproj.Parse([]byte(src))
	require.NoError(t, err)
	return p
}

func fixedIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

// withExistingAppGroup adds an empty "App" group as a child of Core.
func withExistingAppGroup(src string) string {
	src = strings.Replace(src,
		"\t\t\t\t"+batteryConstID+" /* BBBatteryConstants.swift */,\n",
		"\t\t\t\t"+batteryConstID+" /* BBBatteryConstants.swift */,\n\t\t\t\t"+existingAppID+" /* App */,\n", 1)
	def := "\t\t" + existingAppID + " /* App */ = {\n" +
		"\t\t\tisa = PBXGroup;\n" +
		"\t\t\tchildren = (\n\t\t\t);\n" +
		"\t\t\tpath = App;\n" +
		"\t\t\tsourceTree = \"<group>\";\n" +
		"\t\t};\n"
	return strings.Replace(src, "/* End PBXGroup section */", def+"/* End PBXGroup section */", 1)
}

// withSeparatorEdgeLabels relabels the two Core constants "/abs.swift" and
// "Dir/".
func withSeparatorEdgeLabels(src string) string {
	src = strings.Replace(src,
		"\t\t\t\t"+systemConstID+" /* BBSystemConstants.swift */,\n",
		"\t\t\t\t"+systemConstID+" /* /abs.swift */,\n", 1)
	return strings.Replace(src,
		"\t\t\t\t"+batteryConstID+" /* BBBatteryConstants.swift */,\n",
		"\t\t\t\t"+batteryConstID+" /* Dir/ */,\n", 1)
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		label  string
		prefix string
		rest   string
		ok     bool
	}{
		{label: "App/BBAppManager.swift", prefix: "App", rest: "BBAppManager.swift", ok: true},
		{label: "Views/Cells/Row.swift", prefix: "Views", rest: "Cells/Row.swift", ok: true},
		{label: "BBConstants.swift"},
		{label: "/Leading.swift"},
		{label: "Trailing/"},
		{label: ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			prefix, rest, ok := SplitLabel(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestAnalyzeClassifiesChildren(t *testing.T) {
	p := parse(t, fixture(t))

	plan, err := Analyze(p, "Core", nil)
	require.NoError(t, err)

	assert.Equal(t, coreID, plan.GroupID)
	assert.Equal(t, "Core", plan.GroupName)
	assert.Len(t, plan.Entries, 5)
	assert.Equal(t, []Entry{
		{ID: systemConstID, Label: "BBSystemConstants.swift"},
		{ID: batteryConstID, Label: "BBBatteryConstants.swift"},
	}, plan.Constants)

	require.Len(t, plan.Buckets, 2)
	app, battery := plan.Buckets[0], plan.Buckets[1]

	assert.Equal(t, "App", app.Prefix)
	assert.Equal(t, []Relocation{
		{Entry: Entry{ID: appManagerID, Label: "App/BBAppManager.swift"}, Name: "BBAppManager.swift"},
		{Entry: Entry{ID: windowID, Label: "App/BBWindowManager.swift"}, Name: "BBWindowManager.swift"},
	}, app.Entries)
	assert.False(t, app.Existing)
	assert.Empty(t, app.GroupID)

	assert.Equal(t, "Battery", battery.Prefix)
	assert.Len(t, battery.Entries, 1)

	assert.Equal(t, 3, plan.Relocated())
	assert.Len(t, plan.NewGroups(), 2)
	assert.False(t, plan.Empty())
}

func TestAnalyzeDoesNotModifyProject(t *testing.T) {
	src := fixture(t)
	p := parse(t, src)

	_, err := Analyze(p, coreID, nil)
	require.NoError(t, err)
	assert.Equal(t, src, string(p.Source()))
}

func TestAnalyzeDropsDuplicateChildren(t *testing.T) {
	line := "\t\t\t\t" + appManagerID + " /* App/BBAppManager.swift */,\n"
	src := strings.Replace(fixture(t), line, line+line, 1)

	plan, err := Analyze(parse(t, src), "Core", nil)
	require.NoError(t, err)
	assert.Len(t, plan.Entries, 5)
	assert.Equal(t, 3, plan.Relocated())
}

func TestAnalyzeFallsBackToDisplayName(t *testing.T) {
	src := strings.Replace(fixture(t),
		"\t\t\t\t"+systemConstID+" /* BBSystemConstants.swift */,\n",
		"\t\t\t\t"+systemConstID+",\n", 1)

	plan, err := Analyze(parse(t, src), "Core", nil)
	require.NoError(t, err)
	assert.Contains(t, plan.Constants, Entry{ID: systemConstID, Label: "BBSystemConstants.swift"})
	assert.Zero(t, plan.Skipped)
}

func TestAnalyzeSkipsUnlabelledDanglingChild(t *testing.T) {
	src := strings.Replace(fixture(t),
		"\t\t\t\t"+batteryConstID+" /* BBBatteryConstants.swift */,\n",
		"\t\t\t\t"+batteryConstID+" /* BBBatteryConstants.swift */,\n\t\t\t\tD8D9E5FF2A8403D300E295FA,\n", 1)

	plan, err := Analyze(parse(t, src), "Core", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Skipped)
	assert.Len(t, plan.Entries, 5)
}

func TestAnalyzeCollectsSeparatorEdgeLabels(t *testing.T) {
	plan, err := Analyze(parse(t, withSeparatorEdgeLabels(fixture(t))), "Core", nil)
	require.NoError(t, err)

	assert.Empty(t, plan.Constants)
	assert.Equal(t, []Entry{
		{ID: systemConstID, Label: "/abs.swift"},
		{ID: batteryConstID, Label: "Dir/"},
	}, plan.Malformed)
	assert.Equal(t, 3, plan.Relocated())

	err = plan.Check()
	require.ErrorIs(t, err, ErrMalformedLabel)
	var malformed *MalformedLabelError
	require.True(t, errors.As(err, &malformed))
	assert.Len(t, malformed.Entries, 2)
	assert.Contains(t, err.Error(), `"/abs.swift"`)

	var buf bytes.Buffer
	WriteReport(&buf, plan)
	assert.Contains(t, buf.String(), "Warning: 2 items have an empty prefix or file name")
	assert.Contains(t, buf.String(), "  - Dir/ ["+batteryConstID+"]")
}

func TestAnalyzeMissingGroup(t *testing.T) {
	_, err := Analyze(parse(t, fixture(t)), "Managers", nil)
	assert.ErrorIs(t, err, pbxproj.ErrGroupNotFound)
}

func TestAnalyzeDetectsExistingGroup(t *testing.T) {
	plan, err := Analyze(parse(t, withExistingAppGroup(fixture(t))), "Core", nil)
	require.NoError(t, err)

	require.Len(t, plan.Buckets, 2)
	assert.True(t, plan.Buckets[0].Existing)
	assert.Equal(t, existingAppID, plan.Buckets[0].GroupID)
	assert.False(t, plan.Buckets[1].Existing)
	assert.Len(t, plan.NewGroups(), 1)
}

func TestWriteReport(t *testing.T) {
	plan, err := Analyze(parse(t, fixture(t)), "Core", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteReport(&buf, plan)
	out := buf.String()

	for _, want := range []string{
		"Found 5 items in group Core [" + coreID + "]",
		"Constants files (2):",
		"Subdirectories (2):",
		"BBBatteryManager.swift",
		"  - Constants files: 2",
		"  - Subdirectories to create: 2",
		"  - Total relocated files: 3",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "merge into")
}
