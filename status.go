// Status: the (head, workdir, stage) comparison matrix and its mapping to
// domain file statuses.
package worksync

import (
	"context"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// AssetStatus is the domain-level state of one workspace file.
type AssetStatus string

const (
	// StatusUntracked marks a file present in the working directory but
	// unknown to the repository.
	StatusUntracked AssetStatus = "untracked"

	// StatusModified marks a tracked file whose working-directory content
	// differs from the last commit.
	StatusModified AssetStatus = "modified"

	// StatusDeleted marks a tracked file removed from the working
	// directory.
	StatusDeleted AssetStatus = "deleted"

	// StatusAdded marks a new file that has been staged.
	StatusAdded AssetStatus = "added"
)

// FileStatus pairs one path with its domain status. Produced transiently
// per Status call, never persisted.
type FileStatus struct {
	Path   string
	Status AssetStatus
}

// StatusResult is the full answer to one Status call.
type StatusResult struct {
	// Branch is the currently checked-out branch.
	Branch string

	// HasRemote reports whether an origin remote is configured.
	HasRemote bool

	// FullStatus holds every path with a mapped status, sorted by path.
	FullStatus []FileStatus

	// FilteredStatus is FullStatus restricted to test-asset paths.
	FilteredStatus []FileStatus

	// Counts tallies FilteredStatus entries per status.
	Counts map[AssetStatus]int
}

// Presence codes for one axis of the comparison matrix.
const (
	entryAbsent    = 0 // path does not exist on this axis
	entrySameHead  = 1 // content identical to the commit tree
	entryDiffers   = 2 // content present and different from the commit tree
	entryStageDiff = 3 // staged content differs from the working directory
)

// matrixRow is the raw tri-state triple for one path across the commit
// tree, working directory, and staging index.
type matrixRow struct {
	path    string
	head    int
	workdir int
	stage   int
}

// Status reports file-level workspace state against the last commit. The
// raw comparison matrix is mapped to domain statuses and filtered down to
// the paths that count as test assets.
func (e *Engine) Status(ctx context.Context, localPath string) (*StatusResult, error) {
	if localPath == "" {
		return nil, WrapError(ErrInvalidRef, "local path is required")
	}

	var result *StatusResult
	err := e.withLock(localPath, func() error {
		repo, wt, err := e.openRepo(localPath)
		if err != nil {
			return err
		}

		branch, err := currentBranch(repo)
		if err != nil {
			return err
		}

		_, hasRemote, err := originURL(repo)
		if err != nil {
			return err
		}

		wtStatus, err := wt.Status()
		if err != nil {
			return WrapError(err, "failed to compute worktree status")
		}

		rows := statusMatrix(wtStatus)

		full := make([]FileStatus, 0, len(rows))
		for _, row := range rows {
			status, ok := mapMatrixRow(row)
			if !ok {
				continue
			}
			full = append(full, FileStatus{Path: row.path, Status: status})
		}
		sort.Slice(full, func(i, j int) bool { return full[i].Path < full[j].Path })

		filtered := make([]FileStatus, 0, len(full))
		counts := make(map[AssetStatus]int)
		for _, fileStatus := range full {
			if !matchesAnyPattern(fileStatus.Path, e.opts.AssetPatterns) {
				continue
			}
			filtered = append(filtered, fileStatus)
			counts[fileStatus.Status]++
		}

		result = &StatusResult{
			Branch:         branch,
			HasRemote:      hasRemote,
			FullStatus:     full,
			FilteredStatus: filtered,
			Counts:         counts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// statusMatrix derives the raw (head, workdir, stage) triples from go-git's
// two-axis status codes (HEAD vs index, index vs worktree). Paths that are
// unmodified on both axes produce no row.
func statusMatrix(status gogit.Status) []matrixRow {
	rows := make([]matrixRow, 0, len(status))

	for path, fileStatus := range status {
		if isStatePath(path) {
			continue
		}
		row, ok := deriveMatrixRow(path, fileStatus)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].path < rows[j].path })
	return rows
}

// isStatePath reports whether path lies inside the engine's own state
// directory, which never participates in version control.
func isStatePath(path string) bool {
	return path == StateDirName || strings.HasPrefix(path, StateDirName+"/")
}

func deriveMatrixRow(path string, fileStatus *gogit.FileStatus) (matrixRow, bool) {
	staging, worktree := fileStatus.Staging, fileStatus.Worktree

	switch {
	case staging == gogit.Untracked && worktree == gogit.Untracked:
		return matrixRow{path: path, head: entryAbsent, workdir: entryDiffers, stage: entryAbsent}, true

	case staging == gogit.Added:
		if worktree == gogit.Deleted {
			// Staged as new, then removed from the working directory: only
			// the index still knows the file.
			return matrixRow{path: path, head: entryAbsent, workdir: entryAbsent, stage: entryDiffers}, true
		}
		stage := entryDiffers
		if worktree == gogit.Modified {
			stage = entryStageDiff
		}
		return matrixRow{path: path, head: entryAbsent, workdir: entryDiffers, stage: stage}, true

	case staging == gogit.Deleted:
		return matrixRow{path: path, head: entrySameHead, workdir: entryAbsent, stage: entryAbsent}, true

	case worktree == gogit.Deleted:
		return matrixRow{path: path, head: entrySameHead, workdir: entryAbsent, stage: entrySameHead}, true

	case staging == gogit.Modified && worktree == gogit.Modified:
		return matrixRow{path: path, head: entrySameHead, workdir: entryDiffers, stage: entryStageDiff}, true

	case staging == gogit.Modified:
		return matrixRow{path: path, head: entrySameHead, workdir: entryDiffers, stage: entryDiffers}, true

	case worktree == gogit.Modified:
		return matrixRow{path: path, head: entrySameHead, workdir: entryDiffers, stage: entrySameHead}, true

	default:
		// Unmodified, renamed, copied, and conflict states fall outside
		// the domain mapping table.
		return matrixRow{}, false
	}
}

// mapMatrixRow maps one raw triple onto a domain status. Combinations
// outside the table mean "unchanged" and are dropped.
func mapMatrixRow(row matrixRow) (AssetStatus, bool) {
	switch {
	case row.head == entryAbsent && row.workdir == entryDiffers && row.stage == entryAbsent:
		return StatusUntracked, true

	case row.head == entryAbsent && row.workdir == entryDiffers &&
		(row.stage == entryDiffers || row.stage == entryStageDiff):
		return StatusAdded, true

	case row.head == entrySameHead && row.workdir == entryDiffers:
		return StatusModified, true

	case row.head == entrySameHead && row.workdir == entryAbsent &&
		(row.stage == entryAbsent || row.stage == entrySameHead):
		return StatusDeleted, true

	default:
		return "", false
	}
}
