package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moasq/bbtool/internal/diag"
	"github.com/moasq/bbtool/internal/membership"
	"github.com/moasq/bbtool/internal/pbxproj"
	"github.com/moasq/bbtool/internal/restructure"
)

// groupInput selects a manifest and one of its groups.
type groupInput struct {
	Project string `json:"project,omitempty" jsonschema:"Path to the .xcodeproj directory or its project.pbxproj. Defaults to the configured project."`
	Group   string `json:"group,omitempty" jsonschema:"Group to restructure, by object id, name or path. Defaults to the configured group."`
}

type restructureInput struct {
	Project string `json:"project,omitempty" jsonschema:"Path to the .xcodeproj directory or its project.pbxproj. Defaults to the configured project."`
	Group   string `json:"group,omitempty" jsonschema:"Group to restructure, by object id, name or path. Defaults to the configured group."`
	Backup  bool   `json:"backup,omitempty" jsonschema:"Copy project.pbxproj to project.pbxproj.backup before writing"`
}

type relocationOutput struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	NewName string `json:"new_label"`
}

type subgroupOutput struct {
	Prefix   string             `json:"prefix"`
	GroupID  string             `json:"group_id,omitempty"`
	Existing bool               `json:"existing"`
	Files    []relocationOutput `json:"files"`
}

type planOutput struct {
	Manifest   string           `json:"manifest"`
	GroupID    string           `json:"group_id"`
	GroupName  string           `json:"group_name"`
	Constants  []string         `json:"constants"`
	Subgroups  []subgroupOutput `json:"subgroups"`
	Relocated  int              `json:"relocated"`
	Skipped    int              `json:"skipped,omitempty"`
	Malformed  []string         `json:"malformed,omitempty"`
	Written    bool             `json:"written"`
	BackupPath string           `json:"backup_path,omitempty"`
	Message    string           `json:"message"`
}

func (s *Server) restructureOptions(project, group string) (restructure.Options, error) {
	manifest, err := s.cfg.ResolveManifest(project)
	if err != nil {
		return restructure.Options{}, err
	}
	if group == "" {
		group = s.cfg.Group
	}
	return restructure.Options{ManifestPath: manifest, Group: group, Logger: s.logger}, nil
}

func (s *Server) handleAnalyzeGroup(ctx context.Context, req *mcp.CallToolRequest, input groupInput) (*mcp.CallToolResult, planOutput, error) {
	opts, err := s.restructureOptions(input.Project, input.Group)
	if err != nil {
		return nil, planOutput{}, err
	}
	res, err := restructure.Run(ctx, opts)
	if err != nil {
		return nil, planOutput{}, err
	}

	out := summarize(opts.ManifestPath, res)
	out.Message = fmt.Sprintf("%d of %d children would move into %d sub-groups", out.Relocated, len(res.Plan.Entries), len(out.Subgroups))
	if len(out.Malformed) > 0 {
		out.Message += fmt.Sprintf(". %d labels have an empty prefix or file name and must be renamed before restructure_group", len(out.Malformed))
	}
	return nil, out, nil
}

func (s *Server) handleRestructureGroup(ctx context.Context, req *mcp.CallToolRequest, input restructureInput) (*mcp.CallToolResult, planOutput, error) {
	opts, err := s.restructureOptions(input.Project, input.Group)
	if err != nil {
		return nil, planOutput{}, err
	}
	opts.Apply = true
	opts.Backup = input.Backup || s.cfg.Backup

	res, err := restructure.Run(ctx, opts)
	if err != nil {
		return nil, planOutput{}, err
	}

	out := summarize(opts.ManifestPath, res)
	if !res.Written {
		out.Message = "Nothing to restructure; the group has no prefixed children."
		return nil, out, nil
	}
	if s.journal != nil {
		if err := s.journal.Append(res.JournalRecord(opts.ManifestPath)); err != nil {
			s.logger.Warn("failed to record restructure", "error", err)
		}
	}
	out.Message = fmt.Sprintf("Moved %d files into %d sub-groups. Reopen the project in Xcode to see the change.", out.Relocated, len(out.Subgroups))
	return nil, out, nil
}

func summarize(manifest string, res *restructure.Result) planOutput {
	plan := res.Plan
	out := planOutput{
		Manifest:   manifest,
		GroupID:    plan.GroupID,
		GroupName:  plan.GroupName,
		Constants:  []string{},
		Subgroups:  []subgroupOutput{},
		Relocated:  plan.Relocated(),
		Skipped:    plan.Skipped,
		Written:    res.Written,
		BackupPath: res.BackupPath,
	}
	for _, c := range plan.Constants {
		out.Constants = append(out.Constants, c.Label)
	}
	for _, m := range plan.Malformed {
		out.Malformed = append(out.Malformed, m.Label)
	}
	for _, b := range plan.Buckets {
		sg := subgroupOutput{Prefix: b.Prefix, GroupID: b.GroupID, Existing: b.Existing, Files: []relocationOutput{}}
		for _, r := range b.Entries {
			sg.Files = append(sg.Files, relocationOutput{ID: r.ID, Label: r.Label, NewName: r.Name})
		}
		out.Subgroups = append(out.Subgroups, sg)
	}
	return out
}

type membershipInput struct {
	Project string   `json:"project,omitempty" jsonschema:"Path to the .xcodeproj directory or its project.pbxproj. Defaults to the configured project."`
	Target  string   `json:"target,omitempty" jsonschema:"Native target name e.g. BatteryBoi (iOS). Defaults to the configured target."`
	Files   []string `json:"files,omitempty" jsonschema:"File names or relative paths to look for. Defaults to the configured membership_files."`
}

type membershipOutput struct {
	Target  string              `json:"target"`
	Results []membership.Result `json:"results"`
	Missing []string            `json:"missing"`
	Message string              `json:"message"`
}

func (s *Server) handleCheckMembership(ctx context.Context, req *mcp.CallToolRequest, input membershipInput) (*mcp.CallToolResult, membershipOutput, error) {
	manifest, err := s.cfg.ResolveManifest(input.Project)
	if err != nil {
		return nil, membershipOutput{}, err
	}
	target := input.Target
	if target == "" {
		target = s.cfg.Target
	}
	files := input.Files
	if len(files) == 0 {
		files = s.cfg.MembershipFiles
	}
	if target == "" || len(files) == 0 {
		return nil, membershipOutput{}, fmt.Errorf("target and files are required (or set target and membership_files in config)")
	}

	p, err := pbxproj.Load(manifest)
	if err != nil {
		return nil, membershipOutput{}, err
	}
	report, err := membership.Verify(p, target, files)
	if err != nil {
		return nil, membershipOutput{}, err
	}

	out := membershipOutput{
		Target:  report.Target,
		Results: report.Results,
		Missing: report.Missing(),
	}
	if out.Missing == nil {
		out.Missing = []string{}
	}
	if report.Complete() {
		out.Message = fmt.Sprintf("All %d files are compiled by %s", len(report.Results), report.Target)
	} else {
		out.Message = fmt.Sprintf("%d of %d files are missing from %s", len(out.Missing), len(report.Results), report.Target)
	}
	return nil, out, nil
}

type devicesInput struct {
	Source string `json:"source" jsonschema:"One of ioreg bluetooth or profiles"`
	Sudo   bool   `json:"sudo,omitempty" jsonschema:"Run profiles through sudo. Only used with source profiles."`
}

type devicesOutput struct {
	Source   string         `json:"source"`
	Devices  []diag.Device  `json:"devices,omitempty"`
	Profiles []diag.Profile `json:"profiles,omitempty"`
	Items    []any          `json:"items,omitempty"`
	Count    int            `json:"count"`
}

func (s *Server) handleListDevices(ctx context.Context, req *mcp.CallToolRequest, input devicesInput) (*mcp.CallToolResult, devicesOutput, error) {
	out := devicesOutput{Source: input.Source}
	switch input.Source {
	case "ioreg", "":
		out.Source = "ioreg"
		devices, err := s.collector.Devices(ctx)
		if err != nil {
			return nil, devicesOutput{}, err
		}
		out.Devices = devices
		out.Count = len(devices)
	case "bluetooth":
		items, err := s.collector.ConnectedBluetooth(ctx)
		if err != nil {
			return nil, devicesOutput{}, err
		}
		out.Items = items
		out.Count = len(items)
	case "profiles":
		profiles, err := s.collector.Profiles(ctx, input.Sudo)
		if err != nil {
			return nil, devicesOutput{}, err
		}
		out.Profiles = profiles
		out.Count = len(profiles)
	default:
		return nil, devicesOutput{}, fmt.Errorf("unknown source %q: use ioreg, bluetooth or profiles", input.Source)
	}
	return nil, out, nil
}
