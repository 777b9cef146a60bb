package restructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/moasq/bbtool/internal/pbxproj"
	"github.com/moasq/bbtool/internal/storage"
)

// ErrManifestLocked is returned when another process holds the manifest lock.
var ErrManifestLocked = errors.New("manifest is locked by another bbtool process")

// BackupSuffix is appended to the manifest path for the pre-apply copy.
const BackupSuffix = ".backup"

// Options configures a restructure run.
type Options struct {
	// ManifestPath is the project.pbxproj file to read and, on apply, rewrite.
	ManifestPath string
	// Group is the container to restructure: an object id, name or path.
	Group string
	// Apply writes the result. Without it the run is a dry run.
	Apply bool
	// Backup copies the manifest to ManifestPath+BackupSuffix before writing.
	Backup bool

	Logger *slog.Logger
	// IDSource overrides the random identifier source.
	IDSource func() string
}

// Result describes a finished run.
type Result struct {
	Plan *Plan
	// Written is true when the manifest was rewritten.
	Written    bool
	BackupPath string
}

// JournalRecord summarizes a written result for the journal.
func (r *Result) JournalRecord(manifest string) storage.JournalRecord {
	rec := storage.JournalRecord{
		Manifest:   manifest,
		GroupID:    r.Plan.GroupID,
		GroupName:  r.Plan.GroupName,
		Relocated:  r.Plan.Relocated(),
		BackupPath: r.BackupPath,
	}
	for _, b := range r.Plan.Buckets {
		if b.Existing {
			if rec.MergedGroups == nil {
				rec.MergedGroups = make(map[string]string)
			}
			rec.MergedGroups[b.Prefix] = b.GroupID
			continue
		}
		if rec.CreatedGroups == nil {
			rec.CreatedGroups = make(map[string]string)
		}
		rec.CreatedGroups[b.Prefix] = b.GroupID
	}
	return rec
}

// Run reads the manifest, classifies the group's children and, when
// opts.Apply is set, rewrites the manifest in place. The new text is fully
// built and re-parsed before anything is written; any failure leaves the
// file untouched.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Apply {
		lock := flock.New(opts.ManifestPath + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock manifest: %w", err)
		}
		if !ok {
			return nil, ErrManifestLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release manifest lock", "error", err)
			}
			_ = os.Remove(lock.Path())
		}()
	}

	p, err := pbxproj.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	plan, err := Analyze(p, opts.Group, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("analyzed group",
		"group", plan.GroupID,
		"entries", len(plan.Entries),
		"constants", len(plan.Constants),
		"subdirectories", len(plan.Buckets),
	)

	res := &Result{Plan: plan}
	if !opts.Apply {
		return res, nil
	}
	if err := plan.Check(); err != nil {
		return nil, err
	}
	if plan.Empty() {
		logger.Info("nothing to restructure", "group", plan.GroupID)
		return res, nil
	}

	out, err := Apply(p, plan, pbxproj.NewIDGenerator(p.Identifiers(), opts.IDSource))
	if err != nil {
		return nil, err
	}
	if _, err := pbxproj.Parse(out); err != nil {
		return nil, fmt.Errorf("restructured manifest does not parse, nothing written: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Backup {
		res.BackupPath = opts.ManifestPath + BackupSuffix
		if err := copyFile(opts.ManifestPath, res.BackupPath); err != nil {
			return nil, fmt.Errorf("failed to back up manifest: %w", err)
		}
		logger.Info("manifest backed up", "path", res.BackupPath)
	}

	if err := writeFileAtomic(opts.ManifestPath, out); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	res.Written = true
	logger.Info("manifest rewritten",
		"path", opts.ManifestPath,
		"created", len(plan.NewGroups()),
		"relocated", plan.Relocated(),
	)
	return res, nil
}

// writeFileAtomic replaces path with data via a temp file and rename, keeping
// the original file mode.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		// no-op once the rename has happened
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
