package internal

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrInvalidPath      = errors.New("invalid document path")
	ErrNotFound         = errors.New("document not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrReadOnlyStore    = errors.New("store is read-only")
	ErrWriteError       = errors.New("write failed")
)

// DocumentPath is a repository-relative, slash separated document name.
type DocumentPath string

func NewDocumentPath(s string) (DocumentPath, error) {
	if s == "" || strings.HasPrefix(s, "/") {
		return "", ErrInvalidPath
	}
	if strings.ContainsAny(s, "\\\x00") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(s, "/") {
		switch {
		case seg == "", seg == ".", seg == "..":
			return "", ErrInvalidPath
		case strings.EqualFold(seg, ".git"):
			return "", ErrInvalidPath
		}
	}
	if path.Clean(s) != s {
		return "", ErrInvalidPath
	}
	return DocumentPath(s), nil
}

func (p DocumentPath) String() string {
	return string(p)
}

// Ext returns the lower-cased extension including the dot.
func (p DocumentPath) Ext() string {
	return strings.ToLower(path.Ext(string(p)))
}

// PageIntent is the resolved purpose of a request.
type PageIntent int

const (
	IntentView PageIntent = iota
	IntentEdit
	IntentCreate
	IntentSearch
	IntentRaw
	IntentStylesheet
	IntentNotFound
)

var intentNames = [...]string{
	IntentView:       "view",
	IntentEdit:       "edit",
	IntentCreate:     "create",
	IntentSearch:     "search",
	IntentRaw:        "raw",
	IntentStylesheet: "stylesheet",
	IntentNotFound:   "notfound",
}

func (i PageIntent) String() string {
	if i < 0 || int(i) >= len(intentNames) {
		return "unknown"
	}
	return intentNames[i]
}

// SearchResult is one matching line of a head revision search.
type SearchResult struct {
	Filename    DocumentPath
	LineNumber  int
	MatchedLine string
}

// CommitMetadata carries the identity and message recorded with a commit.
type CommitMetadata struct {
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	Message        string
}

// Revision describes a commit created by the store.
type Revision struct {
	Hash    string
	Message string
	Author  string
}
