package burn

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/qepting91/burneddit/internal/domain"
)

// ErrUnknownBurnType aborts a policy before any item is touched.
var ErrUnknownBurnType = errors.New("unknown burn type")

const secondsPerDay = 86400

// ApplyPolicy decides and carries out the disposition of each item, in order.
// Items younger than MaxAgeDays are skipped. A failed delete or edit is logged
// and recorded as StatusFailed; the remaining items are still processed.
func (r *Runner) ApplyPolicy(ctx context.Context, policy domain.Policy, items []domain.Item, m domain.Mutator) ([]domain.Record, error) {
	r.log.Info("applying policy",
		"burn_type", policy.BurnType,
		"max_age_days", policy.MaxAgeDays,
		"template", policy.Template,
	)
	if !policy.BurnType.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownBurnType, policy.BurnType)
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		now := r.now()
		age := now.Sub(item.CreatedAt).Seconds() / secondsPerDay
		rec := domain.Record{
			RunID:   r.runID,
			Kind:    item.Kind,
			ID:      item.ID,
			AgeDays: roundAge(age),
			DryRun:  r.dryRun,
			Time:    now.UTC(),
		}

		var err error
		switch {
		case age < policy.MaxAgeDays:
			rec.Status = domain.StatusSkipped
		case policy.BurnType == domain.BurnDelete:
			rec.Status = domain.StatusDeleted
			if !r.dryRun {
				err = m.Delete(ctx, item)
			}
		default:
			rec.Status = domain.StatusOverwritten
			if !r.dryRun {
				err = m.Edit(ctx, item, policy.Template)
			}
		}
		if err != nil {
			rec.Status = domain.StatusFailed
			rec.Error = err.Error()
			r.log.Error("burn failed", "id", item.ID, "kind", item.Kind, "error", err)
		}

		r.log.Info("handling item",
			"id", rec.ID,
			"kind", rec.Kind,
			"age_days", rec.AgeDays,
			"status", rec.Status,
		)
		records = append(records, rec)
	}
	return records, nil
}

func roundAge(days float64) float64 {
	return math.Round(days*100) / 100
}
