package service

import (
	"context"
	"errors"
	"strings"

	"biblio/internal/account/models"
	"biblio/internal/account/notify"
	"biblio/internal/account/secrets"
	catalogservice "biblio/internal/catalog/service"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/platform/sentinel"
	"biblio/pkg/requestcontext"
)

// MembershipInput is what an applicant submits.
type MembershipInput struct {
	Email      string
	FullName   string
	NationalID string
}

func (in MembershipInput) normalized() MembershipInput {
	return MembershipInput{
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:   strings.TrimSpace(in.FullName),
		NationalID: strings.TrimSpace(in.NationalID),
	}
}

// AccountInput is a librarian-created account with its initial password.
type AccountInput struct {
	MembershipInput
	Role     id.Role
	Password string
}

// ApprovalResult reports the approved account and how the applicant was told.
type ApprovalResult struct {
	Account         *models.Account
	RegistrationURL string
	EmailSent       bool
}

// RequestMembership records a PENDING MEMBER account awaiting librarian review.
func (s *Service) RequestMembership(ctx context.Context, in MembershipInput) (*models.Account, error) {
	in = in.normalized()
	account, err := models.NewAccount(id.NewAccountID(), in.Email, in.FullName, in.NationalID, id.RoleMember, requestcontext.Now(ctx))
	if err != nil {
		return nil, asValidation(err)
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accounts.Create(txCtx, account); err != nil {
			return wrapStoreErr(err, "account not found", "email already registered", "failed to create account")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventAccountRequested),
			Subject: account.ID.String(),
			Details: map[string]string{"email": account.Email},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "membership requested", "account_id", account.ID)
	if s.metrics != nil {
		s.metrics.IncrementMembershipRequests()
	}
	s.changed(ctx, changefeed.CollectionAccounts)
	return account, nil
}

// ApproveAccount moves a PENDING account to PROVISIONAL, stores a registration token and
// emails the applicant. A failed email is logged; the approval stands.
func (s *Service) ApproveAccount(ctx context.Context, accountID id.AccountID) (*ApprovalResult, error) {
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate registration token")
	}
	registrationURL, err := notify.RegistrationURL(s.cfg.RegistrationBaseURL, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build registration link")
	}

	var account *models.Account
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		a, err := s.accounts.Execute(txCtx, accountID, (*models.Account).CanApprove, func(a *models.Account) {
			a.ApplyApproved(now)
		})
		if err != nil {
			return wrapStoreErr(err, "account not found", "", "failed to approve account")
		}
		if err := s.tokens.Save(txCtx, models.NewRegistrationToken(token, a.ID, s.cfg.RegistrationTokenTTL, now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registration token")
		}
		account = a
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventAccountApproved),
			Subject: a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account approved", "account_id", account.ID)
	if s.metrics != nil {
		s.metrics.IncrementDecision("approved")
	}
	s.changed(ctx, changefeed.CollectionAccounts)

	result := &ApprovalResult{Account: account, RegistrationURL: registrationURL}
	if s.mailer == nil {
		s.logger.InfoContext(ctx, "no mailer configured, registration link not sent", "account_id", account.ID)
		return result, nil
	}
	if err := s.mailer.SendApproval(ctx, notify.ApprovalEmail{
		To:              account.Email,
		Name:            account.FullName,
		NationalID:      account.NationalID,
		RegistrationURL: registrationURL,
	}); err != nil {
		s.logger.WarnContext(ctx, "approval email failed", "account_id", account.ID, "error", err)
		if s.metrics != nil {
			s.metrics.IncrementEmailFailures()
		}
		return result, nil
	}
	result.EmailSent = true
	return result, nil
}

// RejectAccount closes a PENDING request.
func (s *Service) RejectAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	var account *models.Account
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		a, err := s.accounts.Execute(txCtx, accountID, (*models.Account).CanReject, func(a *models.Account) {
			a.ApplyRejected(now)
		})
		if err != nil {
			return wrapStoreErr(err, "account not found", "", "failed to reject account")
		}
		account = a
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventAccountRejected),
			Subject: a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account rejected", "account_id", account.ID)
	if s.metrics != nil {
		s.metrics.IncrementDecision("rejected")
	}
	s.changed(ctx, changefeed.CollectionAccounts)
	return account, nil
}

// CompleteRegistration redeems a registration token: the account becomes ACTIVE with the
// given password and, for MEMBER accounts, a catalog member is created.
func (s *Service) CompleteRegistration(ctx context.Context, token, password string) (*models.Account, error) {
	if err := s.validatePassword(password); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	regToken, err := s.tokens.Find(ctx, strings.TrimSpace(token), now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration link is invalid or expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration token")
	}
	current, err := s.accounts.FindByID(ctx, regToken.AccountID)
	if err != nil {
		return nil, wrapStoreErr(err, "account not found", "", "failed to load account")
	}
	if current.Status != models.AccountStatusProvisional {
		return nil, dErrors.New(dErrors.CodeConflict, "account is not awaiting registration")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, wrapHashErr(err)
	}

	var account *models.Account
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if current.IsMember() {
			if err := s.registerMember(txCtx, current.FullName, current.NationalID, current.Email); err != nil {
				return err
			}
		}
		a, err := s.accounts.Execute(txCtx, current.ID, requireProvisional, func(a *models.Account) {
			a.Activate(hash, now)
		})
		if err != nil {
			return wrapStoreErr(err, "account not found", "", "failed to activate account")
		}
		if err := s.tokens.Delete(txCtx, regToken.Token); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume registration token")
		}
		account = a
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventAccountActivated),
			Subject: a.ID.String(),
			Details: map[string]string{"role": a.Role.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registration completed", "account_id", account.ID, "role", account.Role)
	if s.metrics != nil {
		s.metrics.IncrementActivations()
	}
	s.changed(ctx, changefeed.CollectionAccounts)
	return account, nil
}

// CreateAccount is the librarian path: the account starts ACTIVE with the given password.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error) {
	in.MembershipInput = in.normalized()
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	account, err := models.NewAccount(id.NewAccountID(), in.Email, in.FullName, in.NationalID, in.Role, now)
	if err != nil {
		return nil, asValidation(err)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, wrapHashErr(err)
	}
	account.Activate(hash, now)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.accounts.FindByEmail(txCtx, account.Email); err == nil {
			return dErrors.New(dErrors.CodeUniqueness, "email already registered")
		} else if !isNotFound(err) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
		}
		if account.IsMember() {
			if err := s.registerMember(txCtx, account.FullName, account.NationalID, account.Email); err != nil {
				return err
			}
		}
		if err := s.accounts.Create(txCtx, account); err != nil {
			return wrapStoreErr(err, "account not found", "email already registered", "failed to create account")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventAccountActivated),
			Subject: account.ID.String(),
			Details: map[string]string{"role": account.Role.String(), "created_by": "librarian"},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created", "account_id", account.ID, "role", account.Role)
	if s.metrics != nil {
		s.metrics.IncrementActivations()
	}
	s.changed(ctx, changefeed.CollectionAccounts)
	return account, nil
}

// registerMember creates the catalog member for an account. A member already holding the
// national id is the same person only when its email matches the account email; the loan
// engine finds members by account email, so any other pairing is refused.
func (s *Service) registerMember(ctx context.Context, name, nationalID, email string) error {
	existing, err := s.members.GetMemberByNationalID(ctx, nationalID)
	switch {
	case err == nil:
		if !strings.EqualFold(existing.Email, email) {
			return dErrors.New(dErrors.CodeUniqueness, "national id is registered to a member with a different email")
		}
		s.logger.InfoContext(ctx, "member already registered, linking account",
			"member_id", existing.ID,
			"member_number", existing.MemberNumber,
		)
		return nil
	case !dErrors.HasCode(err, dErrors.CodeNotFound):
		return err
	}

	if _, err := s.members.GetMemberByEmail(ctx, email); err == nil {
		return dErrors.New(dErrors.CodeUniqueness, "email is registered to a member with a different national id")
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}

	member, err := s.members.CreateMember(ctx, catalogservice.MemberInput{
		Name:       name,
		NationalID: nationalID,
		Email:      email,
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member created for account", "member_id", member.ID, "member_number", member.MemberNumber)
	return nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password is too short")
	}
	return nil
}

func requireProvisional(a *models.Account) error {
	if a.Status != models.AccountStatusProvisional {
		return dErrors.New(dErrors.CodeConflict, "account is not awaiting registration")
	}
	return nil
}

func wrapHashErr(err error) error {
	if _, ok := dErrors.From(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
}
