package repositories

import (
	"context"
	"fmt"
)

// Store groups every repository behind one unit of work. The Store handed to
// the WithTx callback runs all of its repositories in that transaction.
type Store interface {
	ConsultationReqs() ConsultationReqRepository
	DeletedUserAccounts() DeletedUserAccountRepository
	PwdChangeReqs() PwdChangeReqRepository
	Settlements() SettlementRepository
	StoppedSettlements() StoppedSettlementRepository
	TempMfaSecrets() TempMfaSecretRepository
	UserAccounts() UserAccountRepository
	Identities() IdentityRepository
	Careers() CareerRepository
	ConsultingFees() ConsultingFeeRepository
	MfaInfos() MfaInfoRepository
	Tenants() TenantRepository
	Documents() DocumentRepository

	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	db DB
}

// NewStore creates a Store backed by db (normally the app's *pgxpool.Pool).
func NewStore(db DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) ConsultationReqs() ConsultationReqRepository {
	return NewConsultationReqRepository(s.db)
}
func (s *pgStore) DeletedUserAccounts() DeletedUserAccountRepository {
	return NewDeletedUserAccountRepository(s.db)
}
func (s *pgStore) PwdChangeReqs() PwdChangeReqRepository { return NewPwdChangeReqRepository(s.db) }
func (s *pgStore) Settlements() SettlementRepository     { return NewSettlementRepository(s.db) }
func (s *pgStore) StoppedSettlements() StoppedSettlementRepository {
	return NewStoppedSettlementRepository(s.db)
}
func (s *pgStore) TempMfaSecrets() TempMfaSecretRepository { return NewTempMfaSecretRepository(s.db) }
func (s *pgStore) UserAccounts() UserAccountRepository     { return NewUserAccountRepository(s.db) }
func (s *pgStore) Identities() IdentityRepository          { return NewIdentityRepository(s.db) }
func (s *pgStore) Careers() CareerRepository               { return NewCareerRepository(s.db) }
func (s *pgStore) ConsultingFees() ConsultingFeeRepository { return NewConsultingFeeRepository(s.db) }
func (s *pgStore) MfaInfos() MfaInfoRepository             { return NewMfaInfoRepository(s.db) }
func (s *pgStore) Tenants() TenantRepository               { return NewTenantRepository(s.db) }
func (s *pgStore) Documents() DocumentRepository           { return NewDocumentRepository(s.db) }

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrapErr("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = wrapErr("commit", fmt.Errorf("commit: %w", cerr))
		}
	}()

	err = fn(&pgStore{db: tx})
	return err
}
