// Package membership checks which files a native target compiles.
package membership

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moasq/bbtool/internal/pbxproj"
)

// ErrNoSourcesPhase is returned when the target has no PBXSourcesBuildPhase.
var ErrNoSourcesPhase = errors.New("target has no sources build phase")

// Result is the membership state of one requested file.
type Result struct {
	File string `json:"file"`
	// Match is the manifest path that satisfied the request, if any.
	Match   string `json:"match,omitempty"`
	Present bool   `json:"present"`
}

// Report lists the requested files for one target.
type Report struct {
	TargetID    string   `json:"target_id"`
	Target      string   `json:"target"`
	SourceCount int      `json:"source_count"`
	Results     []Result `json:"results"`
}

// Missing returns the requested files the target does not compile.
func (r *Report) Missing() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Present {
			out = append(out, res.File)
		}
	}
	return out
}

// Complete reports whether every requested file is compiled by the target.
func (r *Report) Complete() bool {
	return len(r.Missing()) == 0
}

// TargetNotFoundError carries the names of the targets that do exist.
type TargetNotFoundError struct {
	Name      string
	Available []string
}

func (e *TargetNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("target %q not found; the manifest has no native targets", e.Name)
	}
	return fmt.Sprintf("target %q not found; available: %s", e.Name, strings.Join(e.Available, ", "))
}

func (e *TargetNotFoundError) Unwrap() error { return pbxproj.ErrTargetNotFound }

// Verify resolves target by name and reports whether each of files is in its
// sources build phase. A requested file matches a manifest path that equals
// it or ends with "/" followed by it.
func Verify(p *pbxproj.Project, target string, files []string) (*Report, error) {
	t, err := p.FindTarget(target)
	if err != nil {
		var names []string
		for _, t := range p.Targets() {
			names = append(names, t.Name)
		}
		return nil, &TargetNotFoundError{Name: target, Available: names}
	}

	sources, ok := p.SourceFiles(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSourcesPhase, t.Name)
	}

	report := &Report{TargetID: t.ID, Target: t.Name, SourceCount: len(sources)}
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		res := Result{File: f}
		if m, ok := match(sources, f); ok {
			res.Present = true
			res.Match = m
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func match(sources []string, file string) (string, bool) {
	for _, s := range sources {
		if s == file || strings.HasSuffix(s, "/"+file) {
			return s, true
		}
	}
	return "", false
}
