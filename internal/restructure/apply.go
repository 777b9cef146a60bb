package restructure

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/moasq/bbtool/internal/pbxproj"
)

// ErrSectionEndMissing is returned when new groups are needed but the
// manifest has no "End PBXGroup section" marker to insert them before.
var ErrSectionEndMissing = errors.New("end of PBXGroup section marker not found")

// Apply rewrites the manifest according to plan and returns the new text.
// New group ids are drawn from ids and recorded on the plan's buckets. The
// project itself is not modified. A plan with malformed labels fails; a plan
// with nothing to relocate returns the source unchanged.
func Apply(p *pbxproj.Project, plan *Plan, ids *pbxproj.IDGenerator) ([]byte, error) {
	if err := plan.Check(); err != nil {
		return nil, err
	}
	src := p.Source()
	if plan.Empty() {
		return bytes.Clone(src), nil
	}

	group, ok := p.Object(plan.GroupID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", pbxproj.ErrGroupNotFound, plan.GroupID)
	}
	children, ok := group.Array("children")
	if !ok {
		return nil, fmt.Errorf("group %s has no children list", plan.GroupID)
	}

	newGroups := plan.NewGroups()
	var marker pbxproj.Comment
	if len(newGroups) > 0 {
		marker, ok = p.Doc.FindComment(pbxproj.GroupSectionEndMarker)
		if !ok {
			return nil, ErrSectionEndMissing
		}
		for _, b := range newGroups {
			id, err := ids.Next()
			if err != nil {
				return nil, err
			}
			b.GroupID = id
		}
	}

	patch := pbxproj.NewPatch(src)

	patch.Replace(children.Pos, children.End,
		pbxproj.FormatChildren(containerChildren(plan, newGroups), pbxproj.LineIndent(src, children.Pos)))

	for _, b := range plan.Buckets {
		if !b.Existing {
			continue
		}
		if err := mergeInto(p, patch, b); err != nil {
			return nil, err
		}
	}

	if len(newGroups) > 0 {
		entry, _ := p.ObjectEntry(plan.GroupID)
		indent := pbxproj.LineIndent(src, entry.Key.Pos)
		var defs strings.Builder
		for _, b := range newGroups {
			defs.WriteString(pbxproj.FormatGroup(pbxproj.GroupDef{
				ID:       b.GroupID,
				Name:     b.Prefix,
				Path:     b.Prefix,
				Children: relocatedChildren(b),
			}, indent))
		}
		patch.Insert(pbxproj.LineStart(src, marker.Pos), defs.String())
	}

	for _, b := range plan.Buckets {
		for _, r := range b.Entries {
			relabelReferences(p, patch, r)
			rewriteFileAttributes(p, patch, b.Prefix, r)
		}
	}

	return patch.Bytes()
}

// containerChildren is the new child list: synthesized groups, then the
// constants, each sorted by id.
func containerChildren(plan *Plan, newGroups []*Bucket) []pbxproj.Child {
	groups := make([]pbxproj.Child, 0, len(newGroups))
	for _, b := range newGroups {
		groups = append(groups, pbxproj.Child{ID: b.GroupID, Label: b.Prefix})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	constants := make([]pbxproj.Child, 0, len(plan.Constants))
	for _, c := range plan.Constants {
		constants = append(constants, pbxproj.Child{ID: c.ID, Label: c.Label})
	}
	sort.Slice(constants, func(i, j int) bool { return constants[i].ID < constants[j].ID })

	return append(groups, constants...)
}

func relocatedChildren(b *Bucket) []pbxproj.Child {
	out := make([]pbxproj.Child, 0, len(b.Entries))
	for _, r := range b.Entries {
		out = append(out, pbxproj.Child{ID: r.ID, Label: r.Name})
	}
	return out
}

// mergeInto appends a bucket's entries to the children of an existing group.
func mergeInto(p *pbxproj.Project, patch *pbxproj.Patch, b *Bucket) error {
	obj, ok := p.Object(b.GroupID)
	if !ok {
		return fmt.Errorf("%w: %s", pbxproj.ErrGroupNotFound, b.GroupID)
	}
	arr, ok := obj.Array("children")
	if !ok {
		return fmt.Errorf("group %s has no children list", b.GroupID)
	}

	renamed := make(map[string]string, len(b.Entries))
	for _, r := range b.Entries {
		renamed[r.ID] = r.Name
	}

	present := make(map[string]bool)
	var list []pbxproj.Child
	for _, s := range arr.Strings() {
		if present[s.Value] {
			continue
		}
		present[s.Value] = true
		label, ok := renamed[s.Value]
		if !ok {
			label = s.Label()
		}
		if label == "" {
			label = p.DisplayName(s.Value)
		}
		list = append(list, pbxproj.Child{ID: s.Value, Label: label})
	}
	for _, c := range relocatedChildren(b) {
		if !present[c.ID] {
			present[c.ID] = true
			list = append(list, c)
		}
	}

	patch.Replace(arr.Pos, arr.End, pbxproj.FormatChildren(list, pbxproj.LineIndent(p.Source(), arr.Pos)))
	return nil
}

// relabelReferences rewrites every display comment attached to the entry's
// id, and to the build files that compile it ("<label> in Sources").
func relabelReferences(p *pbxproj.Project, patch *pbxproj.Patch, r Relocation) {
	ids := []string{r.ID}
	for _, e := range p.Objects.Entries {
		obj, ok := e.Value.(*pbxproj.Dict)
		if ok && obj.Value("isa") == pbxproj.ISABuildFile && obj.Value("fileRef") == r.ID {
			ids = append(ids, e.Key.Value)
		}
	}

	for _, id := range ids {
		for _, ref := range p.References(id) {
			if !ref.HasComment || patch.Covers(ref.Pos) {
				continue
			}
			label, ok := relabel(ref.Label(), r.Label, r.Name)
			if !ok {
				continue
			}
			patch.Replace(ref.CommentPos, ref.CommentEnd, pbxproj.FormatComment(label))
		}
	}
}

// relabel maps an old comment to its relocated form. It accepts the exact
// label and label-plus-suffix comments such as "App/X.swift in Sources".
func relabel(comment, old, name string) (string, bool) {
	switch {
	case comment == old:
		return name, true
	case strings.HasPrefix(comment, old+" "):
		return name + comment[len(old):], true
	default:
		return "", false
	}
}

// rewriteFileAttributes strips the prefix from the referenced object's path
// and name, so the file resolves inside its new group.
func rewriteFileAttributes(p *pbxproj.Project, patch *pbxproj.Patch, prefix string, r Relocation) {
	obj, ok := p.Object(r.ID)
	if !ok {
		return
	}
	if s, ok := obj.String("path"); ok && strings.HasPrefix(s.Value, prefix+Separator) && !patch.Covers(s.Pos) {
		patch.Replace(s.Pos, s.End, pbxproj.Quote(strings.TrimPrefix(s.Value, prefix+Separator)))
	}
	if s, ok := obj.String("name"); ok && s.Value == r.Label && !patch.Covers(s.Pos) {
		patch.Replace(s.Pos, s.End, pbxproj.Quote(r.Name))
	}
}
