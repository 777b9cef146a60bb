package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/bbtool/internal/config"
	"github.com/moasq/bbtool/internal/diag"
	"github.com/moasq/bbtool/internal/storage"
)

type fakeRunner map[string]string

func (f fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	return []byte(f[strings.Join(append([]string{name}, args...), " ")]), nil
}

func newTestServer(t *testing.T) (*Server, string, *storage.JournalStore) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "project.pbxproj"))
	require.NoError(t, err)

	bundle := filepath.Join(t.TempDir(), "BatteryBoi.xcodeproj")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	manifest := filepath.Join(bundle, config.ManifestName)
	require.NoError(t, os.WriteFile(manifest, data, 0o644))

	cfg := config.Default()
	cfg.Project = bundle
	cfg.Target = "BatteryBoi (iOS)"
	cfg.MembershipFiles = []string{"BBSystemConstants.swift", "BBBatteryConstants.swift"}

	journal := storage.NewJournalStore(t.TempDir())
	collector := &diag.Collector{Runner: fakeRunner{
		"profiles show": "profileIdentifier: com.example.vpn\nprofileDisplayName: VPN\n",
		"ioreg -c AppleDeviceManagementHIDEventService -r -l": "+-o Device\n  \"Product\" = \"Magic Trackpad\"\n  \"BatteryPercent\" = 12\n",
	}}
	return New(&cfg, journal, collector, nil), manifest, journal
}

func TestAnalyzeGroupDoesNotWrite(t *testing.T) {
	s, manifest, _ := newTestServer(t)
	before, err := os.ReadFile(manifest)
	require.NoError(t, err)

	_, out, err := s.handleAnalyzeGroup(context.Background(), nil, groupInput{})
	require.NoError(t, err)

	assert.Equal(t, "Core", out.GroupName)
	assert.Equal(t, []string{"BBSystemConstants.swift", "BBBatteryConstants.swift"}, out.Constants)
	require.Len(t, out.Subgroups, 2)
	assert.Equal(t, "App", out.Subgroups[0].Prefix)
	assert.Equal(t, "BBAppManager.swift", out.Subgroups[0].Files[0].NewName)
	assert.Equal(t, 3, out.Relocated)
	assert.False(t, out.Written)

	after, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRestructureGroupRecordsJournal(t *testing.T) {
	s, manifest, journal := newTestServer(t)

	_, out, err := s.handleRestructureGroup(context.Background(), nil, restructureInput{Group: "Core", Backup: true})
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, manifest+".backup", out.BackupPath)
	assert.Contains(t, out.Message, "Moved 3 files into 2 sub-groups")

	records, err := journal.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, manifest, records[0].Manifest)
	assert.Len(t, records[0].CreatedGroups, 2)

	_, out, err = s.handleRestructureGroup(context.Background(), nil, restructureInput{})
	require.NoError(t, err)
	assert.False(t, out.Written)
	assert.Contains(t, out.Message, "Nothing to restructure")

	records, err = journal.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckMembershipUsesConfigDefaults(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, out, err := s.handleCheckMembership(context.Background(), nil, membershipInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BBBatteryConstants.swift"}, out.Missing)
	assert.Equal(t, "1 of 2 files are missing from BatteryBoi (iOS)", out.Message)

	_, out, err = s.handleCheckMembership(context.Background(), nil, membershipInput{Files: []string{"BBAppManager.swift"}})
	require.NoError(t, err)
	assert.Empty(t, out.Missing)
	assert.NotNil(t, out.Missing)

	_, _, err = s.handleCheckMembership(context.Background(), nil, membershipInput{Target: "Watch"})
	assert.ErrorContains(t, err, "available: BatteryBoi (iOS)")
}

func TestListDevices(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, out, err := s.handleListDevices(context.Background(), nil, devicesInput{})
	require.NoError(t, err)
	assert.Equal(t, "ioreg", out.Source)
	require.Len(t, out.Devices, 1)
	assert.Equal(t, diag.MinorTrackpad, out.Devices[0].MinorType)

	_, out, err = s.handleListDevices(context.Background(), nil, devicesInput{Source: "profiles"})
	require.NoError(t, err)
	assert.Equal(t, []diag.Profile{{ID: "com.example.vpn", Display: "VPN"}}, out.Profiles)

	_, _, err = s.handleListDevices(context.Background(), nil, devicesInput{Source: "usb"})
	assert.ErrorContains(t, err, "unknown source")
}

func TestServerListsTools(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.MCP("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"analyze_group", "check_membership", "list_devices", "restructure_group"}, names)
}
