package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var commitIDPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// GitActor represents the author or committer of a commit (Value Object)
type GitActor struct {
	name     string
	email    string
	username string
}

// NewGitActor creates a new GitActor with validation
func NewGitActor(name, email, username string) (GitActor, error) {
	if strings.TrimSpace(name) == "" {
		return GitActor{}, errors.New("actor name cannot be empty")
	}

	return GitActor{
		name:     name,
		email:    email,
		username: username,
	}, nil
}

// Name returns the actor's display name
func (a GitActor) Name() string {
	return a.name
}

// Email returns the actor's email address
func (a GitActor) Email() string {
	return a.email
}

// Username returns the actor's forge username
func (a GitActor) Username() string {
	return a.username
}

// CommitInfo represents the commit a benchmark run was executed against (Value Object)
// Immutable once constructed
type CommitInfo struct {
	id            string
	treeID        string
	message       string
	timestamp     time.Time
	timestampText string
	url           string
	author        GitActor
	committer     GitActor
	distinct      bool
}

// NewCommitInfo creates a new CommitInfo with validation
func NewCommitInfo(
	id, treeID, message string,
	timestamp time.Time,
	url string,
	author, committer GitActor,
	distinct bool,
) (CommitInfo, error) {
	normalizedID := strings.ToLower(strings.TrimSpace(id))
	if !commitIDPattern.MatchString(normalizedID) {
		return CommitInfo{}, errors.New("commit id must be a git sha")
	}

	if timestamp.IsZero() {
		return CommitInfo{}, errors.New("commit timestamp cannot be zero")
	}

	return CommitInfo{
		id:        normalizedID,
		treeID:    strings.ToLower(strings.TrimSpace(treeID)),
		message:   message,
		timestamp: timestamp.UTC(),
		url:       url,
		author:    author,
		committer: committer,
		distinct:  distinct,
	}, nil
}

// NewCommitInfoFromText is NewCommitInfo with the timestamp supplied as the
// producer's own RFC3339 text. The text is kept verbatim so re-rendered
// documents do not rewrite the timezone offset or precision the producer chose.
func NewCommitInfoFromText(
	id, treeID, message, timestampText, url string,
	author, committer GitActor,
	distinct bool,
) (CommitInfo, error) {
	parsed, err := time.Parse(time.RFC3339, timestampText)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit timestamp must be RFC3339: %w", err)
	}

	commit, err := NewCommitInfo(id, treeID, message, parsed, url, author, committer, distinct)
	if err != nil {
		return CommitInfo{}, err
	}

	commit.timestampText = timestampText
	return commit, nil
}

// ID returns the commit sha
func (c CommitInfo) ID() string {
	return c.id
}

// TreeID returns the tree sha
func (c CommitInfo) TreeID() string {
	return c.treeID
}

// Message returns the commit message
func (c CommitInfo) Message() string {
	return c.message
}

// Timestamp returns the commit time in UTC
func (c CommitInfo) Timestamp() time.Time {
	return c.timestamp
}

// TimestampText returns the producer's original timestamp text, falling back
// to the UTC RFC3339 rendering when the commit was built from a parsed time.
func (c CommitInfo) TimestampText() string {
	if c.timestampText != "" {
		return c.timestampText
	}
	return c.timestamp.Format(time.RFC3339)
}

// URL returns the forge URL of the commit
func (c CommitInfo) URL() string {
	return c.url
}

// Author returns the commit author
func (c CommitInfo) Author() GitActor {
	return c.author
}

// Committer returns the committer
func (c CommitInfo) Committer() GitActor {
	return c.committer
}

// Distinct reports whether the commit was distinct in its push
func (c CommitInfo) Distinct() bool {
	return c.distinct
}

// ShortID returns the abbreviated commit sha
func (c CommitInfo) ShortID() string {
	if len(c.id) <= 7 {
		return c.id
	}
	return c.id[:7]
}
