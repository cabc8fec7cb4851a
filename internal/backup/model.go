package backup

import (
	"github.com/tis24dev/showsave/internal/types"
)

// BackupRequest names one path (relative to a system's source root) to archive.
type BackupRequest struct {
	// RelativePath is resolved against the source root; "" means the root itself.
	RelativePath string
	// IncludeSubfolders recurses into directories and records them as members.
	IncludeSubfolders bool
	// ExcludedFiles holds literal file names or "*.ext" patterns.
	ExcludedFiles []string
}

// SystemDefinition is one backup target as consumed by the pipeline. Consoles
// and local installations reduce to the same shape: a readable source root.
type SystemDefinition struct {
	Name            string
	Kind            types.SystemKind
	SourceRoot      string
	DestinationRoot string
	Requests        []BackupRequest
}

// TraversalEntry is one file or directory discovered by the planner.
type TraversalEntry struct {
	// Path is the filesystem path of the entry.
	Path string
	// RelPath is Path with the source root stripped, using host separators.
	RelPath string
	IsFile  bool
	// Size is the file size in bytes (0 for directories).
	Size int64
	// Request is the index of the originating BackupRequest.
	Request int
}
