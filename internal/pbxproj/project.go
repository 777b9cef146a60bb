package pbxproj

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrGroupNotFound is returned when no PBXGroup matches a reference.
	ErrGroupNotFound = errors.New("group not found")
	// ErrAmbiguousGroup is returned when a name matches more than one group.
	ErrAmbiguousGroup = errors.New("group reference is ambiguous")
	// ErrTargetNotFound is returned when no native target has the given name.
	ErrTargetNotFound = errors.New("target not found")
	// ErrNoObjects is returned when the manifest lacks an objects dictionary.
	ErrNoObjects = errors.New("manifest has no objects dictionary")
)

// Object isa values used by this package.
const (
	ISAGroup              = "PBXGroup"
	ISABuildFile          = "PBXBuildFile"
	ISANativeTarget       = "PBXNativeTarget"
	ISASourcesBuildPhase  = "PBXSourcesBuildPhase"
	GroupSectionEndMarker = "End PBXGroup section"
)

// idPattern matches the 24 hex digit identifiers Xcode generates.
var idPattern = regexp.MustCompile(`^[0-9A-F]{24}$`)

// Project is a parsed manifest with helpers for the objects table.
type Project struct {
	Doc     *Document
	Objects *Dict
}

// Parse parses manifest text into a Project.
func Parse(src []byte) (*Project, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	objects, ok := doc.Root.Dict("objects")
	if !ok {
		return nil, ErrNoObjects
	}
	return &Project{Doc: doc, Objects: objects}, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// Source returns the bytes the project was parsed from.
func (p *Project) Source() []byte { return p.Doc.Source }

// Object returns the object dictionary for id.
func (p *Project) Object(id string) (*Dict, bool) {
	return p.Objects.Dict(id)
}

// ObjectEntry returns the objects-table entry for id, including its key node.
func (p *Project) ObjectEntry(id string) (*Entry, bool) {
	return p.Objects.Lookup(id)
}

// ISA returns the isa of the object with the given id, or "".
func (p *Project) ISA(id string) string {
	obj, ok := p.Object(id)
	if !ok {
		return ""
	}
	return obj.Value("isa")
}

// DisplayName returns the label Xcode shows for an object: its name, then its
// path, then the comment attached to its key in the objects table.
func (p *Project) DisplayName(id string) string {
	entry, ok := p.ObjectEntry(id)
	if !ok {
		return ""
	}
	if obj, ok := entry.Value.(*Dict); ok {
		if name := obj.Value("name"); name != "" {
			return name
		}
		if path := obj.Value("path"); path != "" {
			return path
		}
	}
	return entry.Key.Comment
}

// IDs returns the object identifiers in source order.
func (p *Project) IDs() []string {
	ids := make([]string, 0, len(p.Objects.Entries))
	for _, e := range p.Objects.Entries {
		ids = append(ids, e.Key.Value)
	}
	return ids
}

// Identifiers returns every identifier-shaped token in the manifest: object
// keys plus any string value that looks like a generated id.
func (p *Project) Identifiers() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Objects.Entries)*2)
	for _, e := range p.Objects.Entries {
		set[e.Key.Value] = struct{}{}
	}
	Walk(p.Doc.Root, func(n Node) {
		if s, ok := n.(*String); ok && idPattern.MatchString(s.Value) {
			set[s.Value] = struct{}{}
		}
	})
	return set
}

// References returns every string node whose value equals id, in source order.
func (p *Project) References(id string) []*String {
	var refs []*String
	Walk(p.Doc.Root, func(n Node) {
		if s, ok := n.(*String); ok && s.Value == id {
			refs = append(refs, s)
		}
	})
	return refs
}

// FindGroup resolves ref to a PBXGroup. ref may be an object id, or the name,
// path or key comment of exactly one group.
func (p *Project) FindGroup(ref string) (string, *Dict, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil, fmt.Errorf("%w: empty reference", ErrGroupNotFound)
	}
	if obj, ok := p.Object(ref); ok {
		if obj.Value("isa") != ISAGroup {
			return "", nil, fmt.Errorf("%w: %s is a %s", ErrGroupNotFound, ref, obj.Value("isa"))
		}
		return ref, obj, nil
	}

	var matches []string
	for _, e := range p.Objects.Entries {
		obj, ok := e.Value.(*Dict)
		if !ok || obj.Value("isa") != ISAGroup {
			continue
		}
		if obj.Value("name") == ref || obj.Value("path") == ref || e.Key.Comment == ref {
			matches = append(matches, e.Key.Value)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil, fmt.Errorf("%w: %q", ErrGroupNotFound, ref)
	case 1:
		obj, _ := p.Object(matches[0])
		return matches[0], obj, nil
	default:
		return "", nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousGroup, ref, strings.Join(matches, ", "))
	}
}

// Target is a native target and its source files.
type Target struct {
	ID   string
	Name string
	Dict *Dict
}

// Targets returns the native targets sorted by name.
func (p *Project) Targets() []Target {
	var targets []Target
	for _, e := range p.Objects.Entries {
		obj, ok := e.Value.(*Dict)
		if !ok || obj.Value("isa") != ISANativeTarget {
			continue
		}
		targets = append(targets, Target{ID: e.Key.Value, Name: obj.Value("name"), Dict: obj})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets
}

// FindTarget returns the native target with the given name.
func (p *Project) FindTarget(name string) (Target, error) {
	for _, t := range p.Targets() {
		if t.Name == name {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
}

// SourceFiles returns the path (or name) of every file reference compiled by
// the target's sources build phase, in build-phase order. ok is false when the
// target has no sources phase.
func (p *Project) SourceFiles(t Target) (files []string, ok bool) {
	phases, _ := t.Dict.Array("buildPhases")
	if phases == nil {
		return nil, false
	}
	for _, phaseID := range phases.Strings() {
		phase, found := p.Object(phaseID.Value)
		if !found || phase.Value("isa") != ISASourcesBuildPhase {
			continue
		}
		ok = true
		buildFiles, _ := phase.Array("files")
		if buildFiles == nil {
			continue
		}
		for _, bf := range buildFiles.Strings() {
			buildFile, found := p.Object(bf.Value)
			if !found {
				continue
			}
			ref, found := p.Object(buildFile.Value("fileRef"))
			if !found {
				continue
			}
			name := ref.Value("path")
			if name == "" {
				name = ref.Value("name")
			}
			if name != "" {
				files = append(files, name)
			}
		}
	}
	return files, ok
}
