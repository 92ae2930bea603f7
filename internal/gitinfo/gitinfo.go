// Package gitinfo resolves source provenance for run reports. When the
// content root lives inside a git repository, the report records which
// commit produced the published site.
package gitinfo

import (
	"errors"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes the repository state a run was built from.
type Info struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// Short returns the abbreviated commit hash.
func (i *Info) Short() string {
	if i == nil || len(i.Commit) < 12 {
		return ""
	}
	return i.Commit[:12]
}

// Resolve returns provenance for the repository containing rootDir. A root
// outside any repository, or a repository without commits, yields (nil, nil):
// provenance is optional, not required.
func Resolve(rootDir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	info := &Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	// Dirty detection is best-effort; a status failure never blocks a run.
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			info.Dirty = !status.IsClean()
		} else {
			slog.Debug("Could not determine worktree status", "error", err)
		}
	}

	return info, nil
}
