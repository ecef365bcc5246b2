// Package vcs inspects the git worktree that edits are applied to.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	gogit "github.com/go-git/go-git/v5"
)

var (
	ErrNotGitRepository = errors.New("not a git repository")
	ErrEmptyPath        = errors.New("repository path cannot be empty")
)

// Repo wraps the go-git repository enclosing a project root.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open finds the repository containing path, walking up to the nearest
// .git directory.
func Open(path string) (*Repo, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepository, absPath)
	}
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

func (r *Repo) Root() string {
	return r.root
}

// DirtyFiles lists worktree paths with staged, unstaged or untracked
// changes, relative to the repository root.
func (r *Repo) DirtyFiles() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	var dirty []string
	for path, fs := range status {
		if fs.Staging != gogit.Unmodified || fs.Worktree != gogit.Unmodified {
			dirty = append(dirty, path)
		}
	}
	sort.Strings(dirty)
	return dirty, nil
}

// IsClean reports whether the worktree has no pending changes.
func (r *Repo) IsClean() (bool, error) {
	dirty, err := r.DirtyFiles()
	if err != nil {
		return false, err
	}
	return len(dirty) == 0, nil
}
