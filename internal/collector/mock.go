package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qepting91/burneddit/internal/domain"
)

// MockClient implements domain.Opener over generated in-memory history.
// Accounts with an empty password fail to open.
type MockClient struct {
	Items int

	mu       sync.Mutex
	accounts map[string]*MockAccount
}

func NewMockClient() *MockClient {
	return &MockClient{Items: 10, accounts: make(map[string]*MockAccount)}
}

func (mc *MockClient) Open(ctx context.Context, creds domain.Credentials) (domain.Account, error) {
	if creds.Password == "" {
		return nil, fmt.Errorf("%w: %s: empty password", domain.ErrAccountUnreachable, creds.Username)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if acc, ok := mc.accounts[creds.Username]; ok {
		return acc, nil
	}

	// One item per week of age, newest first, like a real listing.
	now := time.Now()
	acc := &MockAccount{Edits: make(map[string]string)}
	for i := 0; i < mc.Items; i++ {
		created := now.Add(-time.Duration(i) * 7 * 24 * time.Hour)
		acc.submissions = append(acc.submissions, domain.Item{
			ID: fmt.Sprintf("t3_mock_%s_%d", creds.Username, i), Kind: domain.KindSubmission, CreatedAt: created,
		})
		acc.comments = append(acc.comments, domain.Item{
			ID: fmt.Sprintf("t1_mock_%s_%d", creds.Username, i), Kind: domain.KindComment, CreatedAt: created,
		})
	}
	mc.accounts[creds.Username] = acc
	return acc, nil
}

// MockAccount keeps what was deleted or edited.
type MockAccount struct {
	submissions []domain.Item
	comments    []domain.Item

	Deleted []string
	Edits   map[string]string
}

func (ma *MockAccount) Submissions(ctx context.Context) ([]domain.Item, error) {
	return ma.live(ma.submissions), nil
}

func (ma *MockAccount) Comments(ctx context.Context) ([]domain.Item, error) {
	return ma.live(ma.comments), nil
}

func (ma *MockAccount) live(items []domain.Item) []domain.Item {
	var out []domain.Item
	for _, it := range items {
		deleted := false
		for _, id := range ma.Deleted {
			if id == it.ID {
				deleted = true
				break
			}
		}
		if !deleted {
			out = append(out, it)
		}
	}
	return out
}

func (ma *MockAccount) Delete(ctx context.Context, item domain.Item) error {
	ma.Deleted = append(ma.Deleted, item.ID)
	return nil
}

func (ma *MockAccount) Edit(ctx context.Context, item domain.Item, body string) error {
	ma.Edits[item.ID] = body
	return nil
}
