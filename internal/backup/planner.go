package backup

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/safefs"
)

// Planner expands backup requests into traversal entries.
type Planner struct {
	logger      *logging.Logger
	pathTimeout time.Duration
}

// NewPlanner creates a planner. A nil logger uses the default logger.
// pathTimeout bounds every stat and directory listing; 0 disables it.
func NewPlanner(logger *logging.Logger, pathTimeout time.Duration) *Planner {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Planner{logger: logger, pathTimeout: pathTimeout}
}

// Plan returns every entry Walk would produce, in the same order.
func (p *Planner) Plan(ctx context.Context, sourceRoot string, requests []BackupRequest) ([]TraversalEntry, error) {
	var entries []TraversalEntry
	err := p.Walk(ctx, sourceRoot, requests, func(e TraversalEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Walk streams the entries of each request (in request order) to fn.
//
// Directories are expanded with an explicit LIFO work stack so the traversal
// depth never grows the call stack. Children are visited in the order the
// filesystem reports them. Subdirectories are emitted and entered only when
// the request asks for subfolders; the source root is never emitted.
func (p *Planner) Walk(ctx context.Context, sourceRoot string, requests []BackupRequest, fn func(TraversalEntry) error) error {
	root, err := filepath.Abs(sourceRoot)
	if err != nil {
		return newError(KindIOFailure, "plan", sourceRoot, err, "cannot resolve source root %s", sourceRoot)
	}
	for idx, req := range requests {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.walkRequest(ctx, root, idx, req, fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) walkRequest(ctx context.Context, root string, idx int, req BackupRequest, fn func(TraversalEntry) error) error {
	resolved := filepath.Join(root, req.RelativePath)
	info, err := safefs.Stat(ctx, resolved, p.pathTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindConfigMissingOrInvalid, "plan", resolved, nil, "%s does not exist", resolved)
		}
		return newError(KindIOFailure, "plan", resolved, err, "cannot access %s", resolved)
	}

	if info.Mode().IsRegular() {
		return p.emit(root, resolved, true, info.Size(), idx, fn)
	}
	if !info.IsDir() {
		return newError(KindConfigMissingOrInvalid, "plan", resolved, nil, "%s is neither a file nor a directory", resolved)
	}

	stack := []string{resolved}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := safefs.ReadDir(ctx, dir, p.pathTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return newError(KindIOFailure, "readdir", dir, err, "cannot list %s", dir)
		}

		for _, child := range children {
			childPath := filepath.Join(dir, child.Name())
			isFile, isDir, size, err := p.classify(ctx, childPath, child)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				return newError(KindIOFailure, "stat", childPath, err, "cannot inspect %s", childPath)
			}
			switch {
			case isFile:
				if err := p.emit(root, childPath, true, size, idx, fn); err != nil {
					return err
				}
			case isDir && req.IncludeSubfolders:
				if err := p.emit(root, childPath, false, 0, idx, fn); err != nil {
					return err
				}
				stack = append(stack, childPath)
			}
		}
	}
	return nil
}

// classify resolves the entry type. Symlinks to files are archived as the
// target content; symlinks to directories are not followed.
func (p *Planner) classify(ctx context.Context, path string, d fs.DirEntry) (isFile, isDir bool, size int64, err error) {
	mode := d.Type()
	switch {
	case mode.IsRegular():
		info, err := d.Info()
		if err != nil {
			return false, false, 0, err
		}
		return true, false, info.Size(), nil
	case mode.IsDir():
		return false, true, 0, nil
	case mode&fs.ModeSymlink != 0:
		info, err := safefs.Stat(ctx, path, p.pathTimeout)
		if errors.Is(err, safefs.ErrTimeout) || errors.Is(err, context.Canceled) {
			return false, false, 0, err
		}
		if err != nil {
			p.logger.Warning("Skipping broken symlink %s: %v", path, err)
			return false, false, 0, nil
		}
		if info.Mode().IsRegular() {
			return true, false, info.Size(), nil
		}
		p.logger.Debug("Not following symlinked directory %s", path)
		return false, false, 0, nil
	default:
		p.logger.Debug("Skipping special file %s (%s)", path, mode)
		return false, false, 0, nil
	}
}

func (p *Planner) emit(root, path string, isFile bool, size int64, idx int, fn func(TraversalEntry) error) error {
	rel, err := stripRoot(root, path)
	if err != nil {
		return err
	}
	if rel == "" {
		return newError(KindPathComputation, "relpath", path, nil, "%s resolves to the source root and has no archive name", path)
	}
	return fn(TraversalEntry{
		Path:    path,
		RelPath: rel,
		IsFile:  isFile,
		Size:    size,
		Request: idx,
	})
}

// stripRoot removes the root prefix from path. It fails when path does not
// live under root (for example a request such as "../elsewhere").
func stripRoot(root, path string) (string, error) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return "", nil
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(path, prefix) {
		return "", newError(KindPathComputation, "relpath", path, nil, "%s is not inside source root %s", path, root)
	}
	return strings.TrimPrefix(path, prefix), nil
}
