package burn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/qepting91/burneddit/internal/config"
	"github.com/qepting91/burneddit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type editCall struct {
	ID   string
	Body string
}

type fakeAccount struct {
	submissions []domain.Item
	comments    []domain.Item
	listErr     error
	failIDs     map[string]bool

	deletes []string
	edits   []editCall
}

func (a *fakeAccount) Submissions(ctx context.Context) ([]domain.Item, error) {
	return a.submissions, a.listErr
}

func (a *fakeAccount) Comments(ctx context.Context) ([]domain.Item, error) {
	return a.comments, a.listErr
}

func (a *fakeAccount) Delete(ctx context.Context, item domain.Item) error {
	if a.failIDs[item.ID] {
		return errors.New("403 forbidden")
	}
	a.deletes = append(a.deletes, item.ID)
	return nil
}

func (a *fakeAccount) Edit(ctx context.Context, item domain.Item, body string) error {
	if a.failIDs[item.ID] {
		return errors.New("403 forbidden")
	}
	a.edits = append(a.edits, editCall{ID: item.ID, Body: body})
	return nil
}

type fakeOpener struct {
	accounts map[string]*fakeAccount
	errs     map[string]error
	opened   []string
}

func (o *fakeOpener) Open(ctx context.Context, creds domain.Credentials) (domain.Account, error) {
	o.opened = append(o.opened, creds.Username)
	if err := o.errs[creds.Username]; err != nil {
		return nil, err
	}
	return o.accounts[creds.Username], nil
}

type memWriter struct {
	records []domain.Record
}

func (w *memWriter) Write(rec domain.Record) error {
	w.records = append(w.records, rec)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func aged(id string, kind domain.Kind, days float64) domain.Item {
	return domain.Item{ID: id, Kind: kind, CreatedAt: fixedNow.Add(-time.Duration(days * 24 * float64(time.Hour)))}
}

func newTestRunner(opener domain.Opener, opts ...Option) *Runner {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRunner(opener, discardLogger(), opts...)
}

func TestApplyPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		policy     domain.Policy
		age        float64
		wantStatus domain.Status
		wantDelete []string
		wantEdits  []editCall
	}{
		{
			name:       "younger than threshold is skipped",
			policy:     domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 10},
			age:        5,
			wantStatus: domain.StatusSkipped,
		},
		{
			name:       "old item is deleted",
			policy:     domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 10},
			age:        30,
			wantStatus: domain.StatusDeleted,
			wantDelete: []string{"t1_a"},
		},
		{
			name:       "old item is overwritten",
			policy:     domain.Policy{BurnType: domain.BurnOverwrite, MaxAgeDays: 10, Template: "gone"},
			age:        30,
			wantStatus: domain.StatusOverwritten,
			wantEdits:  []editCall{{ID: "t1_a", Body: "gone"}},
		},
		{
			name:       "exactly at threshold burns",
			policy:     domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 10},
			age:        10,
			wantStatus: domain.StatusDeleted,
			wantDelete: []string{"t1_a"},
		},
		{
			name:       "zero threshold burns everything",
			policy:     domain.Policy{BurnType: domain.BurnOverwrite, MaxAgeDays: 0, Template: ""},
			age:        0.001,
			wantStatus: domain.StatusOverwritten,
			wantEdits:  []editCall{{ID: "t1_a", Body: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			acc := &fakeAccount{}
			r := newTestRunner(nil)

			recs, err := r.ApplyPolicy(context.Background(), tt.policy, []domain.Item{aged("t1_a", domain.KindComment, tt.age)}, acc)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.wantStatus, recs[0].Status)
			assert.Equal(t, "t1_a", recs[0].ID)
			assert.InDelta(t, tt.age, recs[0].AgeDays, 0.01)
			assert.Equal(t, tt.wantDelete, acc.deletes)
			assert.Equal(t, tt.wantEdits, acc.edits)
		})
	}
}

func TestApplyPolicy_UnknownBurnType(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{}
	r := newTestRunner(nil)
	items := []domain.Item{aged("t3_a", domain.KindSubmission, 30), aged("t3_b", domain.KindSubmission, 1)}

	recs, err := r.ApplyPolicy(context.Background(), domain.Policy{BurnType: "archive", MaxAgeDays: 10}, items, acc)
	require.ErrorIs(t, err, ErrUnknownBurnType)
	assert.Empty(t, recs)
	assert.Empty(t, acc.deletes)
	assert.Empty(t, acc.edits)
}

func TestApplyPolicy_OrderAndRounding(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{}
	r := newTestRunner(nil)
	items := []domain.Item{
		aged("t3_c", domain.KindSubmission, 1.23456),
		aged("t3_a", domain.KindSubmission, 20.005001),
		aged("t3_b", domain.KindSubmission, 3),
	}

	recs, err := r.ApplyPolicy(context.Background(), domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 2}, items, acc)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"t3_c", "t3_a", "t3_b"}, []string{recs[0].ID, recs[1].ID, recs[2].ID})
	assert.Equal(t, 1.23, recs[0].AgeDays)
	assert.Equal(t, 20.01, recs[1].AgeDays)
	assert.Equal(t, []string{"t3_a", "t3_b"}, acc.deletes)
}

func TestApplyPolicy_ItemFailureContinues(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{failIDs: map[string]bool{"t1_a": true}}
	r := newTestRunner(nil)
	items := []domain.Item{aged("t1_a", domain.KindComment, 30), aged("t1_b", domain.KindComment, 30)}

	recs, err := r.ApplyPolicy(context.Background(), domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 10}, items, acc)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.StatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].Error, "403")
	assert.Equal(t, domain.StatusDeleted, recs[1].Status)
	assert.Equal(t, []string{"t1_b"}, acc.deletes)
}

func TestApplyPolicy_DryRun(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{}
	r := newTestRunner(nil, WithDryRun(true))
	items := []domain.Item{aged("t1_a", domain.KindComment, 30)}

	recs, err := r.ApplyPolicy(context.Background(), domain.Policy{BurnType: domain.BurnOverwrite, MaxAgeDays: 10, Template: "x"}, items, acc)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.StatusOverwritten, recs[0].Status)
	assert.True(t, recs[0].DryRun)
	assert.Empty(t, acc.edits)
}

func testConfig(users ...string) *config.Config {
	cfg := &config.Config{
		Submissions: domain.Policy{BurnType: domain.BurnDelete, MaxAgeDays: 10},
		Comments:    domain.Policy{BurnType: domain.BurnOverwrite, MaxAgeDays: 10, Template: "gone"},
	}
	for _, u := range users {
		cfg.Users = append(cfg.Users, domain.Credentials{Username: u, Password: "pw"})
	}
	return cfg
}

func TestRun_SkipsUnreachableAccounts(t *testing.T) {
	t.Parallel()

	bob := &fakeAccount{
		submissions: []domain.Item{aged("t3_old", domain.KindSubmission, 30), aged("t3_new", domain.KindSubmission, 1)},
		comments:    []domain.Item{aged("t1_old", domain.KindComment, 40)},
	}
	opener := &fakeOpener{
		accounts: map[string]*fakeAccount{"bob": bob, "carol": {listErr: fmt.Errorf("%w: 503", domain.ErrAccountUnreachable)}},
		errs:     map[string]error{"alice": fmt.Errorf("%w: bad credentials", domain.ErrAccountUnreachable)},
	}
	w := &memWriter{}
	r := newTestRunner(opener, WithRecordWriter(w), WithRunID("run-1"))

	summary, err := r.Run(context.Background(), testConfig("alice", "carol", "bob"))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "carol", "bob"}, opener.opened)
	require.Len(t, summary.Accounts, 3)
	assert.True(t, summary.Accounts[0].Skipped)
	assert.ErrorIs(t, summary.Accounts[0].Err, domain.ErrAccountUnreachable)
	assert.True(t, summary.Accounts[1].Skipped)
	assert.False(t, summary.Accounts[2].Skipped)

	assert.Equal(t, []string{"t3_old"}, bob.deletes)
	assert.Equal(t, []editCall{{ID: "t1_old", Body: "gone"}}, bob.edits)

	require.Len(t, w.records, 3)
	for _, rec := range w.records {
		assert.Equal(t, "bob", rec.Account)
		assert.Equal(t, "run-1", rec.RunID)
	}
	assert.Equal(t, map[domain.Status]int{
		domain.StatusDeleted:     1,
		domain.StatusSkipped:     1,
		domain.StatusOverwritten: 1,
	}, summary.Accounts[2].Counts())
}

func TestRun_UnknownBurnTypeSkipsOnlyThatCollection(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{
		submissions: []domain.Item{aged("t3_old", domain.KindSubmission, 30)},
		comments:    []domain.Item{aged("t1_old", domain.KindComment, 30)},
	}
	opener := &fakeOpener{accounts: map[string]*fakeAccount{"bob": acc}}
	cfg := testConfig("bob")
	cfg.Submissions.BurnType = "archive"

	summary, err := newTestRunner(opener).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Empty(t, acc.deletes)
	assert.Equal(t, []editCall{{ID: "t1_old", Body: "gone"}}, acc.edits)
	require.Len(t, summary.Accounts[0].Records, 1)
	assert.Equal(t, "t1_old", summary.Accounts[0].Records[0].ID)
}

func TestRun_UnexpectedErrorStopsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	opener := &fakeOpener{errs: map[string]error{"alice": boom}}

	summary, err := newTestRunner(opener).Run(context.Background(), testConfig("alice", "bob"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"alice"}, opener.opened)
	require.Len(t, summary.Accounts, 1)
	assert.True(t, summary.Accounts[0].Aborted)
	assert.False(t, summary.Accounts[0].Skipped)
	assert.ErrorIs(t, summary.Accounts[0].Err, boom)
}

func TestRun_CancelledMidCollectionIsAborted(t *testing.T) {
	t.Parallel()

	acc := &fakeAccount{submissions: []domain.Item{aged("t3_old", domain.KindSubmission, 30)}}
	opener := &fakeOpener{accounts: map[string]*fakeAccount{"bob": acc}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newTestRunner(opener).Run(ctx, testConfig("bob", "carol"))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, summary.Accounts, 1)
	assert.True(t, summary.Accounts[0].Aborted)
	assert.Empty(t, acc.deletes)
}

func TestRun_EmptyCollectionsIgnorePolicy(t *testing.T) {
	t.Parallel()

	opener := &fakeOpener{accounts: map[string]*fakeAccount{"bob": {}}}
	cfg := testConfig("bob")
	cfg.Submissions.BurnType = "archive"
	cfg.Comments.BurnType = "archive"

	summary, err := newTestRunner(opener).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, summary.Accounts[0].Records)
	assert.False(t, summary.Accounts[0].Skipped)
}
