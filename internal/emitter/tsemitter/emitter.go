package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mark3labs/swagger2req/internal/codegen"
	"github.com/mark3labs/swagger2req/internal/generrors"
	"github.com/mark3labs/swagger2req/internal/logging"
)

// DefaultExtension is appended to each controller name.
const DefaultExtension = ".ts"

// Options controls where and how controller sources are written.
type Options struct {
	OutDir    string // required; target directory for <Controller>.ts files
	Extension string // defaults to DefaultExtension
	Force     bool   // write even when the directory holds unplanned files
	DryRun    bool   // don't write, only plan
	Logger    *zap.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath    string
	Controller string
	Size       int
	Mode       os.FileMode
}

// Result returns the resolved output directory and planned files.
type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Emit writes one file per source. All files are staged before any is renamed
// into place.
func Emit(ctx context.Context, sources []codegen.Source, opts Options) (*Result, error) {
	log := logging.OrNop(opts.Logger)
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, &generrors.ConfigurationError{Field: "out", Message: "output directory is required"}
	}
	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	files := make(map[string][]byte, len(sources))
	owners := make(map[string]string, len(sources))
	for _, s := range sources {
		name := sanitizeUnitName(s.Controller)
		if name == "" {
			return nil, &generrors.CollaboratorError{Stage: "write", Unit: s.Controller,
				Cause: fmt.Errorf("controller name has no usable file name characters")}
		}
		rel := name + ext
		if prev, dup := owners[rel]; dup {
			return nil, &generrors.CollaboratorError{Stage: "write", Unit: s.Controller,
				Cause: fmt.Errorf("file %s already produced for %s", rel, prev)}
		}
		owners[rel] = s.Controller
		files[rel] = []byte(s.Text)
	}

	// Plan in deterministic order
	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Controller: owners[rel], Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeFiles(abs, rels, files, opts.Force); err != nil {
			return nil, err
		}
		log.Info("wrote controllers", zap.String("dir", abs), zap.Int("files", len(rels)))
	}
	return &Result{OutDir: abs, Planned: planned}, nil
}

var rename = os.Rename

// writeFiles stages every file next to its target before renaming any of
// them. Planned targets are overwritten; anything else already in the
// directory requires force.
func writeFiles(abs string, rels []string, files map[string][]byte, force bool) error {
	if !force {
		if foreign := unplannedEntries(abs, files); len(foreign) > 0 {
			return &generrors.CollaboratorError{Stage: "write", Unit: abs,
				Cause: fmt.Errorf("output directory holds files this run does not produce: %s (use --force to overwrite)",
					strings.Join(foreign, ", "))}
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return &generrors.CollaboratorError{Stage: "write", Unit: abs, Cause: err}
	}

	suffix := ".tmp-" + time.Now().Format("20060102150405")
	staged := make([]string, 0, len(rels))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, rel := range rels {
		tmp := filepath.Join(abs, rel) + suffix
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			cleanup()
			return &generrors.CollaboratorError{Stage: "write", Unit: rel, Cause: err}
		}
		staged = append(staged, tmp)
	}
	if err := commit(abs, rels, staged, suffix); err != nil {
		cleanup()
		return err
	}
	return nil
}

type committed struct {
	target string
	backup string // empty when the target did not exist
}

// commit renames staged files over their targets. Previous targets are kept
// as backups until every rename succeeded; on failure they are restored and
// new targets are removed.
func commit(abs string, rels, staged []string, suffix string) error {
	done := make([]committed, 0, len(rels))
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			c := done[i]
			if c.backup == "" {
				_ = os.Remove(c.target)
				continue
			}
			_ = os.Rename(c.backup, c.target)
		}
	}
	for i, rel := range rels {
		c := committed{target: filepath.Join(abs, rel)}
		if _, err := os.Lstat(c.target); err == nil {
			c.backup = c.target + suffix + ".bak"
			if err := rename(c.target, c.backup); err != nil {
				rollback()
				return &generrors.CollaboratorError{Stage: "write", Unit: rel, Cause: err}
			}
		}
		if err := rename(staged[i], c.target); err != nil {
			if c.backup != "" {
				_ = os.Rename(c.backup, c.target)
			}
			rollback()
			return &generrors.CollaboratorError{Stage: "write", Unit: rel, Cause: err}
		}
		done = append(done, c)
	}
	for _, c := range done {
		if c.backup != "" {
			_ = os.Remove(c.backup)
		}
	}
	return nil
}

// unplannedEntries lists directory entries that are not planned targets.
func unplannedEntries(abs string, files map[string][]byte) []string {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if _, ok := files[e.Name()]; !ok {
			out = append(out, e.Name())
		}
	}
	return out
}

// sanitizeUnitName keeps identifier-like characters of a controller name.
func sanitizeUnitName(name string) string {
	name = strings.TrimSpace(name)
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '$' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
