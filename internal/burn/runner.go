// Package burn applies age-based disposition policies to every configured account.
package burn

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/qepting91/burneddit/internal/config"
	"github.com/qepting91/burneddit/internal/domain"
)

// RecordWriter receives every record as soon as it is produced.
type RecordWriter interface {
	Write(rec domain.Record) error
}

// Runner processes accounts one at a time: submissions, then comments.
type Runner struct {
	opener domain.Opener
	log    *slog.Logger
	now    func() time.Time
	runID  string
	dryRun bool
	writer RecordWriter
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithDryRun records dispositions without issuing delete or edit requests.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithRunID stamps records with id.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithRecordWriter streams records to w.
func WithRecordWriter(w RecordWriter) Option {
	return func(r *Runner) { r.writer = w }
}

func NewRunner(opener domain.Opener, log *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		opener: opener,
		log:    log.With("component", "burn"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary is the outcome of a full run.
type Summary struct {
	Accounts []AccountSummary
}

// AccountSummary holds one account's records, or the reason it was skipped
// or aborted.
type AccountSummary struct {
	Username string
	Skipped  bool
	Aborted  bool
	Err      error
	Records  []domain.Record
}

// Counts tallies records by status.
func (a AccountSummary) Counts() map[domain.Status]int {
	counts := make(map[domain.Status]int)
	for _, rec := range a.Records {
		counts[rec.Status]++
	}
	return counts
}

// Run processes every user in cfg. Unreachable accounts and unknown burn
// types are logged and skipped. Any other error stops the run and is returned
// together with what was done so far.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	summary := &Summary{}
	for _, user := range cfg.Users {
		acct, err := r.runAccount(ctx, user, cfg)
		summary.Accounts = append(summary.Accounts, acct)
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (r *Runner) runAccount(ctx context.Context, user domain.Credentials, cfg *config.Config) (AccountSummary, error) {
	log := r.log.With("user", user.Username)
	acct := AccountSummary{Username: user.Username}

	log.Info("loading reddit connection")
	account, submissions, comments, err := r.fetch(ctx, user)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountUnreachable) {
			acct.Aborted = true
			acct.Err = err
			return acct, err
		}
		log.Error("unable to load reddit connection", "error", err)
		acct.Skipped = true
		acct.Err = err
		return acct, nil
	}

	collections := []struct {
		name   string
		policy domain.Policy
		items  []domain.Item
	}{
		{"submissions", cfg.Submissions, submissions},
		{"comments", cfg.Comments, comments},
	}
	for _, c := range collections {
		log.Info("processing collection", "collection", c.name, "count", len(c.items))
		if len(c.items) == 0 {
			continue
		}
		records, err := r.ApplyPolicy(ctx, c.policy, c.items, account)
		for i := range records {
			records[i].Account = user.Username
			r.write(log, records[i])
		}
		acct.Records = append(acct.Records, records...)
		if errors.Is(err, ErrUnknownBurnType) {
			log.Error("unable to determine burn type", "collection", c.name, "error", err)
			continue
		}
		if err != nil {
			acct.Aborted = true
			acct.Err = err
			return acct, err
		}
	}

	counts := acct.Counts()
	log.Info("account complete",
		"skipped", counts[domain.StatusSkipped],
		"deleted", counts[domain.StatusDeleted],
		"overwritten", counts[domain.StatusOverwritten],
		"failed", counts[domain.StatusFailed],
	)
	return acct, nil
}

// fetch opens the account and materializes both histories.
func (r *Runner) fetch(ctx context.Context, user domain.Credentials) (domain.Account, []domain.Item, []domain.Item, error) {
	account, err := r.opener.Open(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}
	submissions, err := account.Submissions(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	comments, err := account.Comments(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return account, submissions, comments, nil
}

func (r *Runner) write(log *slog.Logger, rec domain.Record) {
	if r.writer == nil {
		return
	}
	if err := r.writer.Write(rec); err != nil {
		log.Warn("unable to write audit record", "id", rec.ID, "error", err)
	}
}
