package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

var (
	// ErrFetch wraps clone and network failures. Retry policy lives
	// with the caller, not here.
	ErrFetch = errors.New("fetch failed")

	// ErrNotFound reports a file missing from a fetched repository.
	ErrNotFound = errors.New("file not found")
)

// Fetcher clones repositories into per-run scratch directories.
type Fetcher struct {
	scratchDir string
	timeout    time.Duration
}

// New creates a Fetcher rooted at scratchDir. The directory is created
// if missing.
func New(scratchDir string, timeout time.Duration) (*Fetcher, error) {
	abs, err := filepath.Abs(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("resolving scratch dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return &Fetcher{scratchDir: abs, timeout: timeout}, nil
}

// Fetch shallow-clones repoURL into a fresh scratch directory and
// returns its path. The clone takes a single branch at depth 1 with no
// tags to bound transfer size.
func (f *Fetcher) Fetch(ctx context.Context, repoURL string) (string, error) {
	dir, err := os.MkdirTemp(f.scratchDir, "repo-*")
	if err != nil {
		return "", fmt.Errorf("creating clone dir: %w", err)
	}

	cloneCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	_, err = git.PlainCloneContext(cloneCtx, dir, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		f.Cleanup(dir)
		return "", fmt.Errorf("%w: cloning %s: %v", ErrFetch, repoURL, err)
	}
	return dir, nil
}

// HeadCommitTime returns the author time of the clone's HEAD commit,
// used as the repository's last-activity signal.
func (f *Fetcher) HeadCommitTime(localPath string) (time.Time, error) {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("reading HEAD commit: %w", err)
	}
	return commit.Author.When, nil
}

// Read returns the content of filePath relative to localPath. Paths
// escaping the clone are rejected. Invalid UTF-8 bytes are replaced so
// downstream parsers never see undecodable input.
func (f *Fetcher) Read(localPath, filePath string) (string, error) {
	full, err := f.resolve(localPath, filePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return "", fmt.Errorf("reading %s: %w", filePath, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// Cleanup removes a scratch clone. Safe to call on a path that was
// never created or is already gone, and refuses paths outside the
// scratch root.
func (f *Fetcher) Cleanup(localPath string) error {
	if localPath == "" {
		return nil
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return fmt.Errorf("resolving cleanup path: %w", err)
	}
	if abs == f.scratchDir || !strings.HasPrefix(abs, f.scratchDir+string(filepath.Separator)) {
		return fmt.Errorf("cleanup path %s outside scratch root", localPath)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("removing %s: %w", localPath, err)
	}
	return nil
}

func (f *Fetcher) resolve(localPath, filePath string) (string, error) {
	if filepath.IsAbs(filePath) {
		return "", fmt.Errorf("%w: absolute path %s", ErrNotFound, filePath)
	}
	root, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolving repo root: %w", err)
	}
	full := filepath.Join(root, filePath)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %s escapes repository", ErrNotFound, filePath)
	}
	return full, nil
}
