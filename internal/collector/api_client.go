package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/burneddit/internal/domain"
	"golang.org/x/time/rate"
)

// listing page size; Reddit caps listings at 100 per request and ~1000 total.
const pageSize = 100

// APIClient opens authenticated Reddit sessions. The limiter is shared by
// every account it opens.
type APIClient struct {
	userAgent string
	limiter   *rate.Limiter
	opts      []reddit.Opt
}

// NewAPIClient returns an opener for script-app credentials. Extra options
// are passed to every reddit.NewClient call.
func NewAPIClient(userAgent string, limiter *rate.Limiter, opts ...reddit.Opt) *APIClient {
	if limiter == nil {
		// API Rate Limit: ~60 reqs/min (safe buffer)
		limiter = rate.NewLimiter(rate.Every(1*time.Second), 1)
	}
	return &APIClient{userAgent: userAgent, limiter: limiter, opts: opts}
}

func (ac *APIClient) Open(ctx context.Context, creds domain.Credentials) (domain.Account, error) {
	rc := reddit.Credentials{ID: creds.ClientID, Secret: creds.ClientSecret, Username: creds.Username, Password: creds.Password}

	opts := append([]reddit.Opt{reddit.WithUserAgent(ac.userAgent)}, ac.opts...)
	client, err := reddit.NewClient(rc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAccountUnreachable, creds.Username, err)
	}
	return &apiAccount{client: client, limiter: ac.limiter, username: creds.Username}, nil
}

type apiAccount struct {
	client   *reddit.Client
	limiter  *rate.Limiter
	username string
}

func (a *apiAccount) Submissions(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	opts := &reddit.ListUserOverviewOptions{ListOptions: reddit.ListOptions{Limit: pageSize}, Sort: "new"}
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		posts, resp, err := a.client.User.PostsOf(ctx, a.username, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: list submissions of %s: %w", domain.ErrAccountUnreachable, a.username, err)
		}
		for _, p := range posts {
			items = append(items, domain.Item{ID: p.FullID, Kind: domain.KindSubmission, CreatedAt: createdAt(p.Created)})
		}
		if resp == nil || resp.After == "" || len(posts) == 0 {
			return items, nil
		}
		opts.After = resp.After
	}
}

func (a *apiAccount) Comments(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	opts := &reddit.ListUserOverviewOptions{ListOptions: reddit.ListOptions{Limit: pageSize}, Sort: "new"}
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		comments, resp, err := a.client.User.CommentsOf(ctx, a.username, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: list comments of %s: %w", domain.ErrAccountUnreachable, a.username, err)
		}
		for _, c := range comments {
			items = append(items, domain.Item{ID: c.FullID, Kind: domain.KindComment, CreatedAt: createdAt(c.Created)})
		}
		if resp == nil || resp.After == "" || len(comments) == 0 {
			return items, nil
		}
		opts.After = resp.After
	}
}

func (a *apiAccount) Delete(ctx context.Context, item domain.Item) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	var err error
	if item.Kind == domain.KindComment {
		_, err = a.client.Comment.Delete(ctx, item.ID)
	} else {
		_, err = a.client.Post.Delete(ctx, item.ID)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", item.ID, err)
	}
	return nil
}

func (a *apiAccount) Edit(ctx context.Context, item domain.Item, body string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	var err error
	if item.Kind == domain.KindComment {
		_, _, err = a.client.Comment.Edit(ctx, item.ID, body)
	} else {
		_, _, err = a.client.Post.Edit(ctx, item.ID, body)
	}
	if err != nil {
		return fmt.Errorf("edit %s: %w", item.ID, err)
	}
	return nil
}

func createdAt(ts *reddit.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time
}
