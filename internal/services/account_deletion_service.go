package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

// AccountDeletionService removes an account in two phases. DeleteAccount runs
// online when the user asks: it stops pending settlements, swaps the account
// for a tombstone and pulls the consultant out of search. PurgeDeletedAccount
// runs from the deleted-account reaper once retention has passed and removes
// everything the tombstone still points at.
type AccountDeletionService struct {
	store    repositories.Store
	payments PaymentPlatform
	search   SearchIndex
	newID    func() uuid.UUID
}

func NewAccountDeletionService(store repositories.Store, payments PaymentPlatform, search SearchIndex) *AccountDeletionService {
	return &AccountDeletionService{
		store:    store,
		payments: payments,
		search:   search,
		newID:    uuid.New,
	}
}

// DeleteAccount returns utils.ErrRecordNotFound when the account does not
// exist. Each step commits on its own; a retry after a partial failure picks
// up where the previous attempt stopped.
func (s *AccountDeletionService) DeleteAccount(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	logger := utils.Logger.WithField("user_account_id", accountID)

	if err := s.stopSettlements(ctx, accountID, now, logger); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		acct, err := tx.UserAccounts().LockByID(ctx, accountID)
		if errors.Is(err, utils.ErrRecordNotFound) {
			// Tombstoned by an earlier attempt that failed later on.
			if _, terr := tx.DeletedUserAccounts().LockByID(ctx, accountID); terr == nil {
				return nil
			}
			return err
		}
		if err != nil {
			return err
		}
		if err := tx.DeletedUserAccounts().Create(ctx, acct.Tombstone(now)); err != nil {
			return err
		}
		return tx.UserAccounts().Delete(ctx, accountID)
	})
	if err != nil {
		return fmt.Errorf("tombstoning account: %w", err)
	}
	logger.Info("Account tombstoned")

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		doc, err := tx.Documents().LockByUserAccountID(ctx, accountID)
		if err != nil || doc == nil {
			return err
		}
		if err := tx.Documents().DeleteByUserAccountID(ctx, accountID); err != nil {
			return err
		}
		return s.search.DeleteDocument(ctx, doc.DocumentID)
	})
	if err != nil {
		return fmt.Errorf("deleting search document: %w", err)
	}

	return nil
}

func (s *AccountDeletionService) stopSettlements(ctx context.Context, accountID uuid.UUID, now time.Time, logger *logrus.Entry) error {
	settlements, err := s.store.Settlements().ListByConsultantID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("listing settlements: %w", err)
	}

	for _, st := range settlements {
		err := s.store.WithTx(ctx, func(tx repositories.Store) error {
			locked, err := tx.Settlements().LockByID(ctx, st.SettlementID)
			if err != nil {
				return err
			}
			if err := tx.StoppedSettlements().Create(ctx, locked.Stop(s.newID(), now)); err != nil {
				return err
			}
			return tx.Settlements().Delete(ctx, locked.SettlementID)
		})
		if errors.Is(err, utils.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stopping settlement %s: %w", st.SettlementID, err)
		}
		logger.WithField("settlement_id", st.GetID()).Info("Settlement stopped")
	}
	return nil
}

// PurgeDeletedAccount removes the tombstone and every row owned by the
// account in one transaction. The payment platform tenant is deleted last so
// any earlier failure leaves it untouched; if that call fails the whole
// transaction rolls back. Every error is a hard failure for the reaper: a row
// vanishing mid-purge is reported rather than treated as already done.
func (s *AccountDeletionService) PurgeDeletedAccount(ctx context.Context, accountID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.DeletedUserAccounts().LockByID(ctx, accountID); err != nil {
			if errors.Is(err, utils.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", utils.ErrTombstoneMissing, accountID)
			}
			return err
		}
		if err := tx.DeletedUserAccounts().Delete(ctx, accountID); err != nil {
			return purgeStepErr("deleted_user_accounts", accountID, err)
		}
		if err := tx.Identities().DeleteByUserAccountID(ctx, accountID); err != nil {
			return purgeStepErr("identities", accountID, err)
		}

		careers, err := tx.Careers().ListByUserAccountID(ctx, accountID)
		if err != nil {
			return purgeStepErr("careers", accountID, err)
		}
		for _, c := range careers {
			if err := tx.Careers().Delete(ctx, c.CareerID); err != nil {
				return purgeStepErr("careers", accountID, err)
			}
		}

		if err := tx.ConsultingFees().DeleteByUserAccountID(ctx, accountID); err != nil {
			return purgeStepErr("consulting_fees", accountID, err)
		}
		if err := tx.MfaInfos().DeleteByUserAccountID(ctx, accountID); err != nil {
			return purgeStepErr("mfa_infos", accountID, err)
		}

		tenant, err := tx.Tenants().FindByUserAccountID(ctx, accountID)
		if err != nil {
			return purgeStepErr("tenants", accountID, err)
		}
		if tenant == nil {
			return nil
		}
		if err := tx.Tenants().DeleteByUserAccountID(ctx, accountID); err != nil {
			return purgeStepErr("tenants", accountID, err)
		}
		return s.payments.DeleteTenant(ctx, tenant.TenantID)
	})
}

// purgeStepErr keeps typed errors reachable through errors.As but drops
// utils.ErrRecordNotFound from the chain, so a row lost under a held
// tombstone lock never reads as "already purged".
func purgeStepErr(table string, accountID uuid.UUID, err error) error {
	if errors.Is(err, utils.ErrRecordNotFound) {
		return fmt.Errorf("purging %s for %s: row disappeared during purge", table, accountID)
	}
	return fmt.Errorf("purging %s for %s: %w", table, accountID, err)
}
