package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"biblio/internal/loan/models"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// SweepOverdue moves every ACTIVE loan whose due date has passed to OVERDUE and
// returns how many loans this call transitioned. Each loan is marked in its own
// transaction under a row lock, so concurrent sweeps never double count and a
// second sweep at the same instant marks nothing.
func (s *Service) SweepOverdue(ctx context.Context) (marked int, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "loan.SweepOverdue")
	defer func() {
		span.SetAttributes(attribute.Int("marked", marked))
		endSpan(span, err)
	}()

	now := requestcontext.Now(ctx)
	candidates, err := s.loans.ListPastDue(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list past due loans")
	}

	var errs []error
	for _, candidate := range candidates {
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			l, err := s.loans.Execute(txCtx, candidate.ID,
				func(l *models.Loan) error { return l.CanMarkOverdue(now) },
				func(l *models.Loan) { l.ApplyOverdue() },
			)
			if err != nil {
				return err
			}
			return s.emit(txCtx, audit.Event{
				Action:  string(audit.EventLoanOverdue),
				Subject: l.ID.String(),
				Details: map[string]string{"member_id": l.MemberID.String()},
			})
		})
		switch {
		case err == nil:
			marked++
		case dErrors.HasCode(err, dErrors.CodeConflict), isNotFound(err):
			// returned or marked by someone else since the listing
		default:
			errs = append(errs, err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSweep(start, len(candidates), marked)
	}
	if marked > 0 {
		s.logger.InfoContext(ctx, "overdue sweep marked loans", "marked", marked, "candidates", len(candidates))
		s.changed(ctx, changefeed.CollectionLoans)
	}
	if len(errs) > 0 {
		return marked, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "overdue sweep failed for some loans")
	}
	return marked, nil
}
