package service

import (
	"context"

	"biblio/internal/account/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

func (s *Service) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, wrapStoreErr(err, "account not found", "", "failed to load account")
	}
	return a, nil
}

// ListAccounts returns accounts oldest first. An empty status lists all of them.
func (s *Service) ListAccounts(ctx context.Context, status models.AccountStatus) ([]*models.Account, error) {
	var (
		accounts []*models.Account
		err      error
	)
	if status == "" {
		accounts, err = s.accounts.List(ctx)
	} else {
		accounts, err = s.accounts.ListByStatus(ctx, status)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}
