// Package history keeps a git log of theme changes. Every change commits the new
// theme id into a file named after the cell key, with the theme name and group
// kept as metadata in the commit message. Optional push to a remote.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Author represents the author of a git commit.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor returns the default author for git commits.
func DefaultAuthor() Author {
	return Author{Name: "random-theme", Email: "random-theme@localhost"}
}

// Change describes a single theme switch.
type Change struct {
	Key      string // cell key
	ID       string // new theme id
	Name     string // new theme name
	Group    string // group filter used for the pick
	Previous string // previous theme id, empty on first run
	Author   Author
}

// Entry is a single recorded change, as read back from the log.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	Previous  string    `json:"previous,omitempty"`
}

// Config holds git repository configuration
type Config struct {
	Path   string // local repository path
	Branch string // branch name (default: master)
	Remote string // remote name (optional, for push)
	SSHKey string // path to SSH private key (optional, for push)
	Push   bool   // push after every commit
}

// Store provides git-backed history of theme changes
type Store struct {
	cfg  Config
	repo *git.Repository
}

// New creates a new history store, initializing or opening the repository
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("git path is required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "master"
	}

	s := &Store{cfg: cfg}
	if err := s.initRepo(); err != nil {
		return nil, fmt.Errorf("failed to init git repo: %w", err)
	}
	return s, nil
}

// initRepo opens existing or creates new git repository
func (s *Store) initRepo() error {
	repo, err := git.PlainOpen(s.cfg.Path)
	if err == nil {
		s.repo = repo
		return s.ensureBranch()
	}
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return s.createNewRepo()
	}
	return fmt.Errorf("failed to open repo: %w", err)
}

// ensureBranch checks out the configured branch, creating it if necessary
func (s *Store) ensureBranch() error {
	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(s.cfg.Branch)
	if chkErr := wt.Checkout(&git.CheckoutOptions{Branch: branchRef}); chkErr == nil {
		return nil
	}

	head, headErr := s.repo.Head()
	if headErr != nil {
		return fmt.Errorf("failed to get HEAD: %w", headErr)
	}
	if chkErr := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Hash: head.Hash(), Create: true}); chkErr != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", s.cfg.Branch, chkErr)
	}
	return nil
}

func (s *Store) createNewRepo() error {
	repo, err := git.PlainInit(s.cfg.Path, false)
	if err != nil {
		return fmt.Errorf("failed to init repo: %w", err)
	}
	s.repo = repo

	wt, wtErr := repo.Worktree()
	if wtErr != nil {
		return fmt.Errorf("failed to get worktree: %w", wtErr)
	}

	// create .gitkeep to have something to commit
	gitkeep := filepath.Join(s.cfg.Path, ".gitkeep")
	if writeErr := os.WriteFile(gitkeep, []byte{}, 0o600); writeErr != nil {
		return fmt.Errorf("failed to create .gitkeep: %w", writeErr)
	}
	if _, addErr := wt.Add(".gitkeep"); addErr != nil {
		return fmt.Errorf("failed to stage .gitkeep: %w", addErr)
	}

	author := DefaultAuthor()
	_, commitErr := wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
	if commitErr != nil {
		return fmt.Errorf("failed to create initial commit: %w", commitErr)
	}

	if s.cfg.Branch != "master" {
		head, headErr := repo.Head()
		if headErr != nil {
			return fmt.Errorf("failed to get HEAD: %w", headErr)
		}
		branchRef := plumbing.NewBranchReferenceName(s.cfg.Branch)
		if chkErr := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Hash: head.Hash(), Create: true}); chkErr != nil {
			return fmt.Errorf("failed to checkout branch %s: %w", s.cfg.Branch, chkErr)
		}
	}
	return nil
}

// Record writes the new theme id to the key file, commits it and pushes if configured.
func (s *Store) Record(ch Change) error {
	if err := validateKey(ch.Key); err != nil {
		return err
	}
	if ch.Author.Name == "" {
		ch.Author = DefaultAuthor()
	}

	filePath := keyToPath(ch.Key)
	if err := os.WriteFile(filepath.Join(s.cfg.Path, filePath), []byte(ch.ID), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, addErr := wt.Add(filePath); addErr != nil {
		return fmt.Errorf("failed to stage file: %w", addErr)
	}

	now := time.Now()
	msg := fmt.Sprintf("set %s to %s\n\ntimestamp: %s\noperation: set\nkey: %s\nname: %s\ngroup: %s\nprevious: %s",
		ch.Key, ch.Name, now.Format(time.RFC3339), ch.Key, ch.Name, ch.Group, ch.Previous)

	_, commitErr := wt.Commit(msg, &git.CommitOptions{
		Author:            &object.Signature{Name: ch.Author.Name, Email: ch.Author.Email, When: now},
		AllowEmptyCommits: true, // single-entry pools can repeat the theme
	})
	if commitErr != nil {
		return fmt.Errorf("failed to commit: %w", commitErr)
	}

	if s.cfg.Push {
		return s.push()
	}
	return nil
}

// push pushes commits to remote repository
func (s *Store) push() error {
	if s.cfg.Remote == "" {
		return nil // no remote configured
	}

	var auth transport.AuthMethod
	if s.cfg.SSHKey != "" {
		var err error
		auth, err = ssh.NewPublicKeysFromFile("git", s.cfg.SSHKey, "")
		if err != nil {
			return fmt.Errorf("failed to load SSH key: %w", err)
		}
	}

	err := s.repo.Push(&git.PushOptions{
		RemoteName: s.cfg.Remote,
		Auth:       auth,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", s.cfg.Branch, s.cfg.Branch)),
		},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// History returns recorded changes for a key, newest first.
// limit specifies maximum number of entries to return (0 = unlimited).
func (s *Store) History(key string, limit int) ([]Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	// commits are matched by the key metadata line, not by file changes:
	// repeated picks of the same theme are empty commits and must be listed too
	filePath := keyToPath(key)
	logIter, err := s.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	defer logIter.Close()

	var entries []Entry
	for limit <= 0 || len(entries) < limit {
		commit, err := logIter.Next()
		if err != nil {
			break // end of history or error
		}

		meta := parseMeta(commit.Message)
		if meta["key"] != key {
			continue
		}
		entry := Entry{
			Hash:      commit.Hash.String()[:7],
			Timestamp: commit.Author.When,
			Author:    commit.Author.Name,
			Name:      meta["name"],
			Group:     meta["group"],
			Previous:  meta["previous"],
		}

		// theme id is the file content at this commit
		if tree, treeErr := commit.Tree(); treeErr == nil {
			if file, fileErr := tree.File(filePath); fileErr == nil {
				if content, contentErr := file.Contents(); contentErr == nil {
					entry.ID = content
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseMeta extracts "field: value" lines from the commit message body.
func parseMeta(message string) map[string]string {
	res := map[string]string{}
	for line := range strings.SplitSeq(message, "\n") {
		k, v, ok := strings.Cut(line, ": ")
		if !ok || strings.Contains(k, " ") {
			continue
		}
		res[k] = v
	}
	return res
}

// keyToPath converts a key to a file path with .val suffix
func keyToPath(key string) string {
	return key + ".val"
}

// validateKey checks the key maps to a plain file inside the repository.
func validateKey(key string) error {
	if key == "" {
		return errors.New("invalid key: empty key not allowed")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q: path separators not allowed", key)
	}
	return nil
}
