package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAccountUnreachable marks failures to open or list an account. The runner
// skips the account and moves on; any other error aborts the run.
var ErrAccountUnreachable = errors.New("account unreachable")

// Kind is the class of a history item.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindComment    Kind = "comment"
)

// BurnType selects what happens to an item past its max age.
type BurnType string

const (
	BurnDelete    BurnType = "delete"
	BurnOverwrite BurnType = "overwrite"
)

// Valid reports whether bt is one of the known burn types.
func (bt BurnType) Valid() bool {
	return bt == BurnDelete || bt == BurnOverwrite
}

// Status is the outcome recorded for a single item.
type Status string

const (
	StatusSkipped     Status = "Skipped"
	StatusDeleted     Status = "Deleted"
	StatusOverwritten Status = "Overwritten"
	StatusFailed      Status = "Failed"
)

// Credentials identify one Reddit script app login.
type Credentials struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Policy governs one item class.
type Policy struct {
	BurnType   BurnType `yaml:"burn_type"`
	MaxAgeDays float64  `yaml:"max_age_days"`
	Template   string   `yaml:"template"`
}

// Item is a submission or comment fetched for this run. ID is the fullname
// (t3_/t1_ prefixed) as the API expects it for delete and edit.
type Item struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time
}

// Record is the reported outcome for one item.
type Record struct {
	RunID   string    `json:"run_id,omitempty"`
	Account string    `json:"account,omitempty"`
	Kind    Kind      `json:"kind"`
	ID      string    `json:"id"`
	AgeDays float64   `json:"age_days"`
	Status  Status    `json:"status"`
	DryRun  bool      `json:"dry_run,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Mutator issues destructive requests for an account's items.
type Mutator interface {
	Delete(ctx context.Context, item Item) error
	Edit(ctx context.Context, item Item, body string) error
}

// Account is an authenticated handle to one user's history.
type Account interface {
	Mutator
	Submissions(ctx context.Context) ([]Item, error)
	Comments(ctx context.Context) ([]Item, error)
}

// Opener constructs authenticated account handles.
type Opener interface {
	Open(ctx context.Context, creds Credentials) (Account, error)
}
