package gitwalk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ChangeRecord describes one changed file within one commit.
type ChangeRecord struct {
	CommitHash string
	FilePath   string
	DiffText   string
	Message    string
	AuthorName string
	CommitDate time.Time
}

// DocumentID returns the stable vector-store id for this record.
func (r ChangeRecord) DocumentID() string {
	return r.CommitHash + ":" + r.FilePath
}

// InitError indicates the repository could not be opened or its history
// enumerated at all. It is fatal to an ingestion job, unlike per-commit
// failures which are skipped.
type InitError struct {
	URL string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("gitwalk: opening %s: %v", e.URL, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Options controls walker behaviour.
type Options struct {
	// CloneDir is where remote repositories are cloned. Empty means a
	// temporary directory that is removed on Close.
	CloneDir string
	// Include/Exclude are doublestar globs applied to changed-file paths.
	Include []string
	Exclude []string
}

// Walker produces a lazy, single-pass sequence of ChangeRecords in commit
// order, then in-commit file order. Use it scanner-style:
//
//	w, err := Open(ctx, url, opts)
//	for w.Next() { rec := w.Record(); ... }
//	err = w.Err()
type Walker struct {
	ctx     context.Context
	dir     string
	cleanup func()
	opts    Options
	logger  *slog.Logger

	commits []string // pending commit hashes, oldest first
	pending []ChangeRecord
	current ChangeRecord
	err     error
	done    bool
}

// Open clones (or reuses) the repository at url and enumerates its commit
// hashes. Any failure here is an *InitError.
func Open(ctx context.Context, url string, opts Options, logger *slog.Logger) (*Walker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, cleanup, err := materialize(ctx, url, opts.CloneDir)
	if err != nil {
		return nil, &InitError{URL: url, Err: err}
	}

	out, err := gitOutput(ctx, dir, "rev-list", "--reverse", "HEAD")
	if err != nil {
		cleanup()
		return nil, &InitError{URL: url, Err: fmt.Errorf("rev-list: %w", err)}
	}

	var commits []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}

	return &Walker{
		ctx:     ctx,
		dir:     dir,
		cleanup: cleanup,
		opts:    opts,
		logger:  logger,
		commits: commits,
	}, nil
}

// materialize makes the repository available on disk. Local paths are used
// in place; anything else is cloned.
func materialize(ctx context.Context, url, cloneDir string) (dir string, cleanup func(), err error) {
	if info, statErr := os.Stat(url); statErr == nil && info.IsDir() {
		return url, func() {}, nil
	}

	if cloneDir != "" {
		if err := os.MkdirAll(cloneDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating clone dir: %w", err)
		}
		dir, err = os.MkdirTemp(cloneDir, "repo-")
	} else {
		dir, err = os.MkdirTemp("", "explainer-repo-")
	}
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}

	cleanup = func() { os.RemoveAll(dir) }

	cmd := exec.CommandContext(ctx, "git", "clone", "--quiet", url, dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("git clone: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return dir, cleanup, nil
}

// Next advances the walker to the next ChangeRecord. It returns false when
// the sequence is exhausted or the context is cancelled.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}

	for len(w.pending) == 0 {
		if err := w.ctx.Err(); err != nil {
			w.err = err
			w.done = true
			return false
		}
		if len(w.commits) == 0 {
			w.done = true
			return false
		}

		hash := w.commits[0]
		w.commits = w.commits[1:]

		records, err := w.loadCommit(hash)
		if err != nil {
			// A broken commit is skipped; the walk continues.
			w.logger.Warn("skipping unreadable commit", "commit", hash, "error", err)
			continue
		}
		w.pending = records
	}

	w.current = w.pending[0]
	w.pending = w.pending[1:]
	return true
}

// Record returns the record produced by the last successful Next.
func (w *Walker) Record() ChangeRecord { return w.current }

// Err returns the fatal error that stopped the walk, if any.
func (w *Walker) Err() error { return w.err }

// Close releases the on-disk clone, if one was made.
func (w *Walker) Close() {
	w.done = true
	if w.cleanup != nil {
		w.cleanup()
		w.cleanup = nil
	}
}

// loadCommit reads one commit's metadata and per-file diffs.
func (w *Walker) loadCommit(hash string) ([]ChangeRecord, error) {
	// Author name, author date, full message, NUL-separated.
	meta, err := gitOutput(w.ctx, w.dir, "show", "-s", "--format=%an%x00%aI%x00%B", hash)
	if err != nil {
		return nil, fmt.Errorf("show metadata: %w", err)
	}
	parts := strings.SplitN(string(meta), "\x00", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("unexpected metadata for %s", hash)
	}
	author := parts[0]
	date, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, fmt.Errorf("parsing author date: %w", err)
	}
	message := strings.TrimSpace(parts[2])

	// Changed files, in the order the commit declares them.
	nameOut, err := gitOutput(w.ctx, w.dir, "diff-tree", "--no-commit-id", "--name-only", "-r", "--root", hash)
	if err != nil {
		return nil, fmt.Errorf("diff-tree: %w", err)
	}

	var records []ChangeRecord
	for _, file := range strings.Split(strings.TrimSpace(string(nameOut)), "\n") {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if !MatchesInclude(file, w.opts.Include) || MatchesExclude(file, w.opts.Exclude) {
			continue
		}

		diff, err := gitOutput(w.ctx, w.dir, "diff-tree", "-p", "--no-commit-id", "--root", hash, "--", file)
		if err != nil {
			// One unreadable file does not sink the commit.
			w.logger.Warn("skipping unreadable file diff", "commit", hash, "path", file, "error", err)
			continue
		}

		records = append(records, ChangeRecord{
			CommitHash: hash,
			FilePath:   file,
			DiffText:   string(diff),
			Message:    message,
			AuthorName: author,
			CommitDate: date,
		})
	}

	return records, nil
}

// gitOutput runs a git subcommand in dir and returns its stdout.
func gitOutput(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
