package service

import (
	"context"
	"strings"
	"time"

	"biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// MemberInput carries the editable member fields.
type MemberInput struct {
	Name       string
	NationalID string
	Email      string
}

func (in MemberInput) normalized() MemberInput {
	return MemberInput{
		Name:       strings.TrimSpace(in.Name),
		NationalID: strings.TrimSpace(in.NationalID),
		Email:      strings.TrimSpace(in.Email),
	}
}

// CreateMember registers a member with the next free member number and a zero balance.
// Number assignment and insert share one transaction; the store's unique constraint
// turns a concurrent collision into a uniqueness error.
func (s *Service) CreateMember(ctx context.Context, in MemberInput) (*models.Member, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveCreateMember(start)
		}
	}()

	in = in.normalized()
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireNationalIDFree(txCtx, in.NationalID, id.MemberID{}); err != nil {
			return err
		}
		number, err := s.nextMemberNumber(txCtx)
		if err != nil {
			return err
		}
		m, err := models.NewMember(id.NewMemberID(), in.Name, in.NationalID, number, in.Email, requestcontext.Now(txCtx))
		if err != nil {
			return asValidation(err)
		}
		if err := s.members.Create(txCtx, m); err != nil {
			return wrapStoreErr(err, "member not found", "member already registered", "failed to create member")
		}
		member = m
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventMemberCreated),
			Subject: m.ID.String(),
			Details: map[string]string{"member_number": m.MemberNumber},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "member created",
		"member_id", member.ID,
		"member_number", member.MemberNumber,
	)
	if s.metrics != nil {
		s.metrics.IncrementMembersCreated()
	}
	s.changed(ctx, changefeed.CollectionMembers)
	return member, nil
}

// UpdateMember edits name, national id and email. Uniqueness ignores the member itself.
func (s *Service) UpdateMember(ctx context.Context, memberID id.MemberID, in MemberInput) (*models.Member, error) {
	in = in.normalized()
	var member *models.Member
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.members.FindByID(txCtx, memberID)
		if err != nil {
			return wrapStoreErr(err, "member not found", "", "failed to load member")
		}
		if err := m.ApplyDetails(in.Name, in.NationalID, in.Email, requestcontext.Now(txCtx)); err != nil {
			return asValidation(err)
		}
		if err := s.requireNationalIDFree(txCtx, m.NationalID, m.ID); err != nil {
			return err
		}
		if err := s.members.Update(txCtx, m); err != nil {
			return wrapStoreErr(err, "member not found", "national id already registered", "failed to update member")
		}
		member = m
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventMemberUpdated),
			Subject: m.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, changefeed.CollectionMembers)
	return member, nil
}

// DeleteMember removes a member without outstanding loans.
func (s *Service) DeleteMember(ctx context.Context, memberID id.MemberID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.members.FindByID(txCtx, memberID); err != nil {
			return wrapStoreErr(err, "member not found", "", "failed to load member")
		}
		outstanding, err := s.loans.CountOutstandingByMember(txCtx, memberID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check loans")
		}
		if outstanding > 0 {
			if s.metrics != nil {
				s.metrics.IncrementDeleteRefused("member")
			}
			return dErrors.New(dErrors.CodeConflict, "member has outstanding loans")
		}
		if err := s.members.Delete(txCtx, memberID); err != nil {
			return wrapStoreErr(err, "member not found", "", "failed to delete member")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventMemberDeleted),
			Subject: memberID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "member deleted", "member_id", memberID)
	if s.metrics != nil {
		s.metrics.IncrementMembersDeleted()
	}
	s.changed(ctx, changefeed.CollectionMembers)
	return nil
}

func (s *Service) GetMember(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, wrapStoreErr(err, "member not found", "", "failed to load member")
	}
	return m, nil
}

// GetMemberByEmail resolves the member record behind a login email.
func (s *Service) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	m, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapStoreErr(err, "no member is registered with this email", "", "failed to load member")
	}
	return m, nil
}

// GetMemberByNationalID returns the member registered with the given DNI.
func (s *Service) GetMemberByNationalID(ctx context.Context, nationalID string) (*models.Member, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "national id is required")
	}
	m, err := s.members.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, wrapStoreErr(err, "no member is registered with this national id", "", "failed to load member")
	}
	return m, nil
}

// ListMembers returns all members ordered by name.
func (s *Service) ListMembers(ctx context.Context) ([]*models.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

// NextMemberNumber previews the number the next CreateMember would assign.
func (s *Service) NextMemberNumber(ctx context.Context) (string, error) {
	return s.nextMemberNumber(ctx)
}

func (s *Service) nextMemberNumber(ctx context.Context) (string, error) {
	numbers, err := s.members.ListMemberNumbers(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read member numbers")
	}
	return id.NextMemberNumber(numbers), nil
}

func (s *Service) requireNationalIDFree(ctx context.Context, nationalID string, self id.MemberID) error {
	existing, err := s.members.FindByNationalID(ctx, nationalID)
	if err == nil && existing.ID != self {
		return dErrors.New(dErrors.CodeUniqueness, "national id already registered")
	}
	if err != nil && !isNotFound(err) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check national id")
	}
	return nil
}
