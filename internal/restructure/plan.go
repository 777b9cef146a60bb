// Package restructure moves the flat, prefix-labelled file references of an
// Xcode group into one sub-group per prefix.
//
// A child labelled "App/BBAppManager.swift" is relocated into a group with
// path "App" and relabelled "BBAppManager.swift". Children without a "/" in
// their label ("constants") stay where they are.
package restructure

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/moasq/bbtool/internal/pbxproj"
)

// Separator splits a label into prefix and remainder.
const Separator = "/"

// ErrMalformedLabel is returned on apply when a child's label contains a
// separator but has no prefix or no remainder, e.g. "/File.swift" or "Dir/".
var ErrMalformedLabel = errors.New("label has an empty prefix or file name")

// MalformedLabelError lists the children that cannot be relocated.
type MalformedLabelError struct {
	Entries []Entry
}

func (e *MalformedLabelError) Error() string {
	labels := make([]string, 0, len(e.Entries))
	for _, m := range e.Entries {
		labels = append(labels, fmt.Sprintf("%q (%s)", m.Label, m.ID))
	}
	return fmt.Sprintf("%v: %s; rename them in Xcode and retry", ErrMalformedLabel, strings.Join(labels, ", "))
}

func (e *MalformedLabelError) Unwrap() error { return ErrMalformedLabel }

// Entry is one child reference of the container.
type Entry struct {
	ID    string
	Label string
}

// Relocation is an entry moving into a sub-group.
type Relocation struct {
	Entry
	// Name is the label with the prefix and first separator removed.
	Name string
}

// Bucket gathers the entries sharing one prefix.
type Bucket struct {
	Prefix  string
	Entries []Relocation

	// GroupID is the target group. It is filled by Apply for new groups and
	// by Analyze when a child group with the same name already exists.
	GroupID string
	// Existing is true when entries are merged into an existing child group.
	Existing bool
}

// Plan is the classification of a container's children.
type Plan struct {
	GroupID   string
	GroupName string

	// Entries lists every child in source order, duplicates removed.
	Entries   []Entry
	Constants []Entry
	// Buckets are sorted by prefix.
	Buckets []*Bucket
	// Malformed holds children whose label contains a separator but cannot
	// be split into prefix and name. They block Apply.
	Malformed []Entry
	// Skipped counts children whose label could not be determined.
	Skipped int
}

// Check returns a *MalformedLabelError when the plan cannot be applied
// without leaving a separator-bearing label in the container.
func (p *Plan) Check() error {
	if len(p.Malformed) == 0 {
		return nil
	}
	return &MalformedLabelError{Entries: p.Malformed}
}

// Relocated returns the number of entries moving into sub-groups.
func (p *Plan) Relocated() int {
	n := 0
	for _, b := range p.Buckets {
		n += len(b.Entries)
	}
	return n
}

// Empty reports whether there is nothing to relocate.
func (p *Plan) Empty() bool {
	return len(p.Buckets) == 0
}

// NewGroups returns the buckets that need a freshly synthesized group.
func (p *Plan) NewGroups() []*Bucket {
	var out []*Bucket
	for _, b := range p.Buckets {
		if !b.Existing {
			out = append(out, b)
		}
	}
	return out
}

// SplitLabel splits a label at its first separator. ok is false for labels
// without a prefix, including a leading or trailing separator.
func SplitLabel(label string) (prefix, rest string, ok bool) {
	prefix, rest, found := strings.Cut(label, Separator)
	if !found || prefix == "" || rest == "" {
		return "", "", false
	}
	return prefix, rest, true
}

// Analyze resolves groupRef and classifies its children. It never modifies
// the project.
func Analyze(p *pbxproj.Project, groupRef string, logger *slog.Logger) (*Plan, error) {
	if logger == nil {
		logger = slog.Default()
	}

	groupID, group, err := p.FindGroup(groupRef)
	if err != nil {
		return nil, err
	}

	plan := &Plan{GroupID: groupID, GroupName: p.DisplayName(groupID)}

	children, ok := group.Array("children")
	if !ok {
		logger.Debug("group has no children list", "group", groupID)
		return plan, nil
	}

	seen := make(map[string]bool)
	byPrefix := make(map[string]*Bucket)
	for _, child := range children.Strings() {
		if seen[child.Value] {
			logger.Debug("dropping duplicate child", "id", child.Value)
			continue
		}
		seen[child.Value] = true

		label := strings.TrimSpace(child.Label())
		if label == "" {
			label = p.DisplayName(child.Value)
		}
		if label == "" {
			plan.Skipped++
			logger.Debug("skipping child without a label", "id", child.Value)
			continue
		}

		entry := Entry{ID: child.Value, Label: label}
		plan.Entries = append(plan.Entries, entry)

		prefix, rest, ok := SplitLabel(label)
		if !ok {
			if strings.Contains(label, Separator) {
				plan.Malformed = append(plan.Malformed, entry)
				logger.Debug("child label has an empty prefix or name", "id", child.Value, "label", label)
				continue
			}
			plan.Constants = append(plan.Constants, entry)
			continue
		}
		b := byPrefix[prefix]
		if b == nil {
			b = &Bucket{Prefix: prefix}
			byPrefix[prefix] = b
		}
		b.Entries = append(b.Entries, Relocation{Entry: entry, Name: rest})
	}

	for _, b := range byPrefix {
		plan.Buckets = append(plan.Buckets, b)
	}
	sort.Slice(plan.Buckets, func(i, j int) bool { return plan.Buckets[i].Prefix < plan.Buckets[j].Prefix })

	// A constant that is already a group named after a prefix absorbs that
	// bucket instead of getting a sibling with the same name.
	for _, b := range plan.Buckets {
		for _, c := range plan.Constants {
			if p.ISA(c.ID) != pbxproj.ISAGroup {
				continue
			}
			obj, _ := p.Object(c.ID)
			if obj.Value("path") == b.Prefix || obj.Value("name") == b.Prefix {
				b.GroupID = c.ID
				b.Existing = true
				break
			}
		}
	}

	return plan, nil
}
