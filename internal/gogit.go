package internal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

const (
	DefaultBranch        = "main"
	DefaultAuthor        = "Wiki"
	DefaultEmail         = "wiki@localhost"
	DefaultCommitMessage = "No commit message"

	maxSearchLine = 1 << 20
)

// RevisionStore serves documents from the head revision of a git
// repository and writes them back as one commit per save.
type RevisionStore struct {
	// mu serializes every access to repository storage. go-git object
	// storage caches pack indexes lazily and is not safe for concurrent
	// use, so reads take it for a single object access only.
	mu sync.Mutex

	repo     *git.Repository
	worktree *git.Worktree
	rootPath string

	exclude []string
	logger  *zap.Logger
	metrics *Metrics
}

type StoreOption func(*RevisionStore)

func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *RevisionStore) {
		s.logger = l
	}
}

func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *RevisionStore) {
		s.metrics = m
	}
}

// WithSearchExclude narrows search to paths not matching any of the
// gitignore-style patterns.
func WithSearchExclude(patterns []string) StoreOption {
	return func(s *RevisionStore) {
		s.exclude = patterns
	}
}

// OpenStore opens the repository at rootPath, initializing an empty one
// when nothing exists there yet.
func OpenStore(rootPath string, opts ...StoreOption) (*RevisionStore, error) {
	info, err := os.Stat(rootPath)
	var repo *git.Repository
	switch {
	case os.IsNotExist(err):
		repo, err = initRepository(rootPath)
	case err != nil:
		return nil, fmt.Errorf("%w: stat %s: %v", ErrStoreUnavailable, rootPath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStoreUnavailable, rootPath)
	default:
		repo, err = git.PlainOpen(rootPath)
		if errors.Is(err, git.ErrRepositoryNotExists) {
			repo, err = initRepository(rootPath)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open repository: %v", ErrStoreUnavailable, err)
	}

	return NewRevisionStore(repo, rootPath, opts...)
}

func initRepository(rootPath string) (*git.Repository, error) {
	return git.PlainInitWithOptions(rootPath, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch),
		},
	})
}

// NewRevisionStore wraps an already opened repository. A repository
// without a worktree is served read-only.
func NewRevisionStore(repo *git.Repository, rootPath string, opts ...StoreOption) (*RevisionStore, error) {
	s := &RevisionStore{
		repo:     repo,
		rootPath: rootPath,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	wt, err := repo.Worktree()
	switch {
	case errors.Is(err, git.ErrIsBareRepository):
	case err != nil:
		return nil, fmt.Errorf("%w: get worktree: %v", ErrStoreUnavailable, err)
	default:
		s.worktree = wt
	}

	s.logger.Info("repository opened",
		zap.String("path", rootPath),
		zap.Bool("read_only", s.IsReadOnly()),
	)
	return s, nil
}

func (s *RevisionStore) RootPath() string {
	return s.rootPath
}

func (s *RevisionStore) IsReadOnly() bool {
	return s.worktree == nil
}

// ReadAtHead returns the committed bytes of p at the head revision.
func (s *RevisionStore) ReadAtHead(ctx context.Context, p DocumentPath) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readLocked(p)
}

func (s *RevisionStore) readLocked(p DocumentPath) ([]byte, error) {
	tree, err := s.headTree()
	if err != nil {
		return nil, err
	}

	entry, err := tree.FindEntry(p.String())
	if err != nil {
		return nil, ErrNotFound
	}
	if !entry.Mode.IsFile() {
		return nil, ErrNotFound
	}

	return s.readBlob(entry.Hash)
}

func (s *RevisionStore) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return content, nil
}

// headTree returns ErrNotFound while the repository has no commits.
func (s *RevisionStore) headTree() (*object.Tree, error) {
	commit, err := s.headCommit()
	if err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get HEAD tree: %w", err)
	}
	return tree, nil
}

func (s *RevisionStore) headCommit() (*object.Commit, error) {
	head, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("get HEAD commit: %w", err)
	}
	return commit, nil
}

// HeadRevision describes the head commit, or returns ErrNotFound for an
// empty repository.
func (s *RevisionStore) HeadRevision(ctx context.Context) (*Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	commit, err := s.headCommit()
	if err != nil {
		return nil, err
	}
	return toRevision(commit), nil
}

type searchTarget struct {
	path DocumentPath
	hash plumbing.Hash
}

// SearchAtHead matches pattern against every line of every tracked text
// file at head. An invalid regular expression is matched literally.
func (s *RevisionStore) SearchAtHead(ctx context.Context, pattern string, caseInsensitive bool) ([]SearchResult, error) {
	if pattern == "" {
		return nil, nil
	}
	re := compileSearchPattern(pattern, caseInsensitive)

	started := time.Now()
	targets, err := s.searchTargets()
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		content, err := s.readBlob(t.hash)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}

		results = append(results, grepContent(t.path, content, re)...)
	}

	s.metrics.observeSearch(time.Since(started))
	s.logger.Debug("search finished",
		zap.String("pattern", pattern),
		zap.Int("files", len(targets)),
		zap.Int("matches", len(results)),
	)
	return results, nil
}

func (s *RevisionStore) searchTargets() ([]searchTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.headTree()
	if err != nil {
		return nil, err
	}

	patterns := s.exclude
	if ignore, err := s.readLocked(IgnoreFilename); err == nil {
		patterns = append(ParseIgnorePatterns(ignore), patterns...)
	}
	matcher := NewIgnoreMatcher(patterns)

	var targets []searchTarget
	err = tree.Files().ForEach(func(f *object.File) error {
		p := DocumentPath(f.Name)
		if matcher.Match(p) {
			return nil
		}
		targets = append(targets, searchTarget{path: p, hash: f.Hash})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk HEAD tree: %w", err)
	}
	return targets, nil
}

func compileSearchPattern(pattern string, caseInsensitive bool) *regexp.Regexp {
	prefix := ""
	if caseInsensitive {
		prefix = "(?i)"
	}
	if re, err := regexp.Compile(prefix + pattern); err == nil {
		return re
	}
	return regexp.MustCompile(prefix + regexp.QuoteMeta(pattern))
}

func grepContent(p DocumentPath, content []byte, re *regexp.Regexp) []SearchResult {
	if isBin, err := binary.IsBinary(bytes.NewReader(content)); err != nil || isBin {
		return nil
	}

	var results []SearchResult
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxSearchLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if re.MatchString(line) {
			results = append(results, SearchResult{
				Filename:    p,
				LineNumber:  lineNo,
				MatchedLine: line,
			})
		}
	}
	return results
}

// Commit writes content to p in the worktree, stages exactly that path
// and records one new revision. On failure the worktree and index are
// restored so nothing is left staged without a commit.
func (s *RevisionStore) Commit(ctx context.Context, p DocumentPath, content []byte, meta CommitMetadata) (*Revision, error) {
	if s.IsReadOnly() {
		return nil, ErrReadOnlyStore
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rev, err := s.commitLocked(p, content, meta)
	s.metrics.observeCommit(err)
	if err != nil {
		s.logger.Error("commit failed", zap.String("path", p.String()), zap.Error(err))
		return nil, err
	}
	return rev, nil
}

func (s *RevisionStore) commitLocked(p DocumentPath, content []byte, meta CommitMetadata) (*Revision, error) {
	previous, _ := s.readLocked(p)
	snap := s.snapshotWorktree(p)

	fs := s.worktree.Filesystem
	if dir := path.Dir(p.String()); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %v", ErrWriteError, err)
		}
	}
	if err := util.WriteFile(fs, p.String(), content, 0o644); err != nil {
		s.rollback(p, snap)
		return nil, fmt.Errorf("%w: write file: %v", ErrWriteError, err)
	}

	if _, err := s.worktree.Add(p.String()); err != nil {
		s.rollback(p, snap)
		return nil, fmt.Errorf("%w: stage file: %v", ErrWriteError, err)
	}

	meta = withCommitDefaults(meta)
	now := time.Now()
	hash, err := s.worktree.Commit(meta.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  meta.AuthorName,
			Email: meta.AuthorEmail,
			When:  now,
		},
		Committer: &object.Signature{
			Name:  meta.CommitterName,
			Email: meta.CommitterEmail,
			When:  now,
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		s.rollback(p, snap)
		return nil, fmt.Errorf("%w: commit: %v", ErrWriteError, err)
	}

	insertions, deletions := lineDiffStat(previous, content)
	s.logger.Info("document committed",
		zap.String("path", p.String()),
		zap.String("hash", hash.String()),
		zap.String("author", meta.AuthorName),
		zap.Int("insertions", insertions),
		zap.Int("deletions", deletions),
	)

	return &Revision{
		Hash:    hash.String(),
		Message: strings.TrimSpace(meta.Message),
		Author:  meta.AuthorName,
	}, nil
}

type worktreeState int

const (
	worktreeAbsent worktreeState = iota
	worktreeFile
	// anything unreadable as a file, such as a directory, is left alone
	worktreeOther
)

type worktreeSnapshot struct {
	state   worktreeState
	content []byte
}

// snapshotWorktree captures what is on disk at p before a write, which
// may differ from head.
func (s *RevisionStore) snapshotWorktree(p DocumentPath) worktreeSnapshot {
	content, err := util.ReadFile(s.worktree.Filesystem, p.String())
	switch {
	case err == nil:
		return worktreeSnapshot{state: worktreeFile, content: content}
	case errors.Is(err, os.ErrNotExist):
		return worktreeSnapshot{state: worktreeAbsent}
	default:
		return worktreeSnapshot{state: worktreeOther}
	}
}

// rollback puts the worktree file back as snap recorded it and drops
// whatever the failed save staged.
func (s *RevisionStore) rollback(p DocumentPath, snap worktreeSnapshot) {
	fs := s.worktree.Filesystem
	var err error
	switch snap.state {
	case worktreeFile:
		err = util.WriteFile(fs, p.String(), snap.content, 0o644)
	case worktreeAbsent:
		err = fs.Remove(p.String())
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
	}
	if err != nil {
		s.logger.Error("restore worktree file", zap.String("path", p.String()), zap.Error(err))
	}

	head, err := s.repo.Head()
	if err != nil {
		// no commits yet: unstage the path without touching the file
		if err := s.unstage(p); err != nil {
			s.logger.Error("unstage file", zap.String("path", p.String()), zap.Error(err))
		}
		return
	}
	if err := s.worktree.Reset(&git.ResetOptions{Commit: head.Hash(), Mode: git.MixedReset}); err != nil {
		s.logger.Error("reset index", zap.String("path", p.String()), zap.Error(err))
	}
}

func (s *RevisionStore) unstage(p DocumentPath) error {
	idx, err := s.repo.Storer.Index()
	if err != nil {
		return err
	}
	if _, err := idx.Remove(p.String()); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
		return err
	}
	return s.repo.Storer.SetIndex(idx)
}

func withCommitDefaults(meta CommitMetadata) CommitMetadata {
	if meta.AuthorName == "" {
		meta.AuthorName = DefaultAuthor
	}
	if meta.AuthorEmail == "" {
		meta.AuthorEmail = DefaultEmail
	}
	if meta.CommitterName == "" {
		meta.CommitterName = meta.AuthorName
	}
	if meta.CommitterEmail == "" {
		meta.CommitterEmail = meta.AuthorEmail
	}
	if strings.TrimSpace(meta.Message) == "" {
		meta.Message = DefaultCommitMessage
	}
	return meta
}

func lineDiffStat(before, after []byte) (insertions, deletions int) {
	if isBin, _ := binary.IsBinary(bytes.NewReader(after)); isBin {
		return 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			insertions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}
	return insertions, deletions
}

func countLines(s string) int {
	n := strings.Count(s, "\n")
	if s != "" && !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func toRevision(c *object.Commit) *Revision {
	return &Revision{
		Hash:    c.Hash.String(),
		Message: strings.TrimSpace(c.Message),
		Author:  c.Author.Name,
	}
}
