package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	catalogmodels "biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// PayFine records a payment against a member's pending fines. The amount must be
// positive and no larger than the balance; otherwise the balance is left unchanged
// and InvalidAmount is returned.
func (s *Service) PayFine(ctx context.Context, memberID id.MemberID, amount int64) (member *catalogmodels.Member, err error) {
	ctx, span := s.startSpan(ctx, "loan.PayFine",
		attribute.String("member_id", memberID.String()),
		attribute.Int64("amount", amount),
	)
	defer func() { endSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		m, err := s.members.Execute(txCtx, memberID,
			func(m *catalogmodels.Member) error { return m.CanPay(amount) },
			func(m *catalogmodels.Member) { m.ApplyPayment(amount, now) },
		)
		if err != nil {
			return wrapStoreErr(err, "member not found", "", "failed to record payment")
		}
		member = m
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventFinePaid),
			Subject: m.ID.String(),
			Details: map[string]string{
				"amount":    strconv.FormatInt(amount, 10),
				"remaining": strconv.FormatInt(m.PendingFines, 10),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "fine paid",
		"member_id", member.ID,
		"amount", amount,
		"remaining", member.PendingFines,
	)
	if s.metrics != nil {
		s.metrics.RecordPayment(amount)
	}
	s.changed(ctx, changefeed.CollectionMembers)
	return member, nil
}

// ListMembersWithPendingFines returns members owing money, largest balance first.
func (s *Service) ListMembersWithPendingFines(ctx context.Context) ([]*catalogmodels.Member, error) {
	members, err := s.members.ListWithPendingFines(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members with fines")
	}
	return members, nil
}
