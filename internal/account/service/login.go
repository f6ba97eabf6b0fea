package service

import (
	"context"
	"strings"
	"time"

	"biblio/internal/account/device"
	"biblio/internal/account/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// LoginResult carries the issued access token.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	Account     *models.Account
}

// Login checks credentials of an ACTIVE account and issues an access token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLogin(start)
		}
	}()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.loginFailed(ctx, email, "", "unknown_email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if account.PasswordHash == "" {
		s.loginFailed(ctx, email, account.ID.String(), "no_password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := s.hasher.Verify(password, account.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.loginFailed(ctx, email, account.ID.String(), "bad_password")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !account.CanLogin() {
		s.loginFailed(ctx, email, account.ID.String(), "inactive")
		return nil, dErrors.New(dErrors.CodeForbidden, "account is not active")
	}

	token, err := s.issuer.GenerateAccessToken(account.ID, account.Email, account.Role, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	details := device.Details(requestcontext.UserAgent(ctx))
	details["role"] = account.Role.String()
	if err := s.emit(ctx, audit.Event{
		Action:  string(audit.EventLoginSucceeded),
		Subject: account.ID.String(),
		ActorID: account.ID.String(),
		Details: details,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record login", "account_id", account.ID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.IncrementLogin("succeeded")
	}
	s.logger.InfoContext(ctx, "login succeeded", "account_id", account.ID, "device", details["device"])

	return &LoginResult{AccessToken: token, ExpiresIn: s.cfg.AccessTokenTTL, Account: account}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, accountID, reason string) {
	details := device.Details(requestcontext.UserAgent(ctx))
	details["email"] = email
	if err := s.emit(ctx, audit.Event{
		Action:  string(audit.EventLoginFailed),
		Subject: accountID,
		Reason:  reason,
		Details: details,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
	if s.metrics != nil {
		s.metrics.IncrementLogin("failed")
	}
	s.logger.WarnContext(ctx, "login failed", "reason", reason, "client_ip", requestcontext.ClientIP(ctx))
}

// ChangePassword replaces the password of an ACTIVE account. A change within the cooldown
// of the previous one fails with a Cooldown error carrying the remaining wait.
func (s *Service) ChangePassword(ctx context.Context, accountID id.AccountID, current, next string) error {
	if err := s.validatePassword(next); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return wrapStoreErr(err, "account not found", "", "failed to load account")
	}
	if !account.CanLogin() {
		return dErrors.New(dErrors.CodeForbidden, "account is not active")
	}
	if err := s.checkCooldown(account, now); err != nil {
		s.passwordChangeOutcome("cooldown")
		return err
	}
	if err := s.hasher.Verify(current, account.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.passwordChangeOutcome("bad_password")
			return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return wrapHashErr(err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.accounts.Execute(txCtx, accountID,
			func(a *models.Account) error { return s.checkCooldown(a, now) },
			func(a *models.Account) { a.ApplyPassword(hash, now) },
		)
		if err != nil {
			return wrapStoreErr(err, "account not found", "", "failed to change password")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventPasswordChanged),
			Subject: accountID.String(),
			ActorID: accountID.String(),
		})
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCooldown) {
			s.passwordChangeOutcome("cooldown")
		}
		return err
	}

	s.logger.InfoContext(ctx, "password changed", "account_id", accountID)
	s.passwordChangeOutcome("changed")
	s.changed(ctx, changefeed.CollectionAccounts)
	return nil
}

func (s *Service) checkCooldown(a *models.Account, now time.Time) error {
	if wait := a.PasswordChangeWait(s.cfg.PasswordChangeCooldown, now); wait > 0 {
		return dErrors.Cooldown("password was changed recently", wait)
	}
	return nil
}

func (s *Service) passwordChangeOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementPasswordChange(outcome)
	}
}
