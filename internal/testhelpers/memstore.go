package testhelpers

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/models"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

// MemState is the full contents of a MemStore. Tests seed and inspect it
// directly through MemStore.Data.
type MemState struct {
	ConsultationReqs    map[uuid.UUID]*models.ConsultationReq
	DeletedUserAccounts map[uuid.UUID]*models.DeletedUserAccount
	PwdChangeReqs       map[string]*models.PwdChangeReq
	Settlements         map[uuid.UUID]*models.Settlement
	StoppedSettlements  map[uuid.UUID]*models.StoppedSettlement
	TempMfaSecrets      map[uuid.UUID]*models.TempMfaSecret
	UserAccounts        map[uuid.UUID]*models.UserAccount
	Identities          map[uuid.UUID]*models.Identity
	Careers             map[uuid.UUID]*models.Career
	ConsultingFees      map[uuid.UUID]*models.ConsultingFee
	MfaInfos            map[uuid.UUID]*models.MfaInfo
	Tenants             map[uuid.UUID]*models.Tenant
	Documents           map[uuid.UUID]*models.ConsultantDocument
}

func newMemState() *MemState {
	return &MemState{
		ConsultationReqs:    map[uuid.UUID]*models.ConsultationReq{},
		DeletedUserAccounts: map[uuid.UUID]*models.DeletedUserAccount{},
		PwdChangeReqs:       map[string]*models.PwdChangeReq{},
		Settlements:         map[uuid.UUID]*models.Settlement{},
		StoppedSettlements:  map[uuid.UUID]*models.StoppedSettlement{},
		TempMfaSecrets:      map[uuid.UUID]*models.TempMfaSecret{},
		UserAccounts:        map[uuid.UUID]*models.UserAccount{},
		Identities:          map[uuid.UUID]*models.Identity{},
		Careers:             map[uuid.UUID]*models.Career{},
		ConsultingFees:      map[uuid.UUID]*models.ConsultingFee{},
		MfaInfos:            map[uuid.UUID]*models.MfaInfo{},
		Tenants:             map[uuid.UUID]*models.Tenant{},
		Documents:           map[uuid.UUID]*models.ConsultantDocument{},
	}
}

func cloneMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (s *MemState) clone() *MemState {
	return &MemState{
		ConsultationReqs:    cloneMap(s.ConsultationReqs),
		DeletedUserAccounts: cloneMap(s.DeletedUserAccounts),
		PwdChangeReqs:       cloneMap(s.PwdChangeReqs),
		Settlements:         cloneMap(s.Settlements),
		StoppedSettlements:  cloneMap(s.StoppedSettlements),
		TempMfaSecrets:      cloneMap(s.TempMfaSecrets),
		UserAccounts:        cloneMap(s.UserAccounts),
		Identities:          cloneMap(s.Identities),
		Careers:             cloneMap(s.Careers),
		ConsultingFees:      cloneMap(s.ConsultingFees),
		MfaInfos:            cloneMap(s.MfaInfos),
		Tenants:             cloneMap(s.Tenants),
		Documents:           cloneMap(s.Documents),
	}
}

type faultRule struct {
	op        string
	key       string
	err       error
	remaining int // < 0 means forever
}

type faults struct {
	rules []*faultRule
}

func (f *faults) check(op, key string) error {
	for _, r := range f.rules {
		if r.op != op || (r.key != "" && r.key != key) || r.remaining == 0 {
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		return r.err
	}
	return nil
}

// MemStore is an in-memory repositories.Store. WithTx runs the callback on a
// copy of the state and swaps it in only on success, which gives tests real
// rollback behaviour. It is not safe for concurrent use.
type MemStore struct {
	state  *MemState
	faults *faults
}

var _ repositories.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{state: newMemState(), faults: &faults{}}
}

// Data exposes the committed state for seeding and assertions.
func (s *MemStore) Data() *MemState { return s.state }

// FailOn makes every call to op (e.g. "consultation_reqs.Delete") return err.
func (s *MemStore) FailOn(op string, err error) {
	s.faults.rules = append(s.faults.rules, &faultRule{op: op, err: err, remaining: -1})
}

// FailOnKey makes op fail only for the record whose id renders as key.
func (s *MemStore) FailOnKey(op, key string, err error) {
	s.faults.rules = append(s.faults.rules, &faultRule{op: op, key: key, err: err, remaining: -1})
}

// FailOnce makes the next call to op return err.
func (s *MemStore) FailOnce(op string, err error) {
	s.faults.rules = append(s.faults.rules, &faultRule{op: op, err: err, remaining: 1})
}

func (s *MemStore) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := s.faults.check("begin", ""); err != nil {
		return err
	}
	tx := &MemStore{state: s.state.clone(), faults: s.faults}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.faults.check("commit", ""); err != nil {
		return err
	}
	*s.state = *tx.state
	return nil
}

func (s *MemStore) ConsultationReqs() repositories.ConsultationReqRepository {
	return &memConsultationReqs{s}
}
func (s *MemStore) DeletedUserAccounts() repositories.DeletedUserAccountRepository {
	return &memDeletedUserAccounts{s}
}
func (s *MemStore) PwdChangeReqs() repositories.PwdChangeReqRepository { return &memPwdChangeReqs{s} }
func (s *MemStore) Settlements() repositories.SettlementRepository     { return &memSettlements{s} }
func (s *MemStore) StoppedSettlements() repositories.StoppedSettlementRepository {
	return &memStoppedSettlements{s}
}
func (s *MemStore) TempMfaSecrets() repositories.TempMfaSecretRepository { return &memTempMfaSecrets{s} }
func (s *MemStore) UserAccounts() repositories.UserAccountRepository     { return &memUserAccounts{s} }
func (s *MemStore) Identities() repositories.IdentityRepository          { return &memIdentities{s} }
func (s *MemStore) Careers() repositories.CareerRepository               { return &memCareers{s} }
func (s *MemStore) ConsultingFees() repositories.ConsultingFeeRepository { return &memConsultingFees{s} }
func (s *MemStore) MfaInfos() repositories.MfaInfoRepository             { return &memMfaInfos{s} }
func (s *MemStore) Tenants() repositories.TenantRepository               { return &memTenants{s} }
func (s *MemStore) Documents() repositories.DocumentRepository           { return &memDocuments{s} }

// expired filters m with keep, orders by id and applies limit.
func expired[K comparable, V any](m map[K]*V, id func(*V) string, keep func(*V) bool, limit int) []*V {
	var out []*V
	for _, v := range m {
		if keep(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func deleteKey[K comparable, V any](m map[K]*V, k K) error {
	if _, ok := m[k]; !ok {
		return utils.ErrRecordNotFound
	}
	delete(m, k)
	return nil
}

func get[K comparable, V any](m map[K]*V, k K) (*V, error) {
	v, ok := m[k]
	if !ok {
		return nil, utils.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

type memConsultationReqs struct{ s *MemStore }

func (r *memConsultationReqs) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]*models.ConsultationReq, error) {
	if err := r.s.faults.check("consultation_reqs.FindExpired", ""); err != nil {
		return nil, err
	}
	return expired(r.s.state.ConsultationReqs,
		func(v *models.ConsultationReq) string { return v.ConsultationReqID.String() },
		func(v *models.ConsultationReq) bool { return !v.LatestCandidateDateTime.After(cutoff) },
		limit), nil
}

func (r *memConsultationReqs) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("consultation_reqs.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.ConsultationReqs, id)
}

type memDeletedUserAccounts struct{ s *MemStore }

func (r *memDeletedUserAccounts) Create(_ context.Context, d *models.DeletedUserAccount) error {
	if err := r.s.faults.check("deleted_user_accounts.Create", d.UserAccountID.String()); err != nil {
		return err
	}
	cp := *d
	r.s.state.DeletedUserAccounts[d.UserAccountID] = &cp
	return nil
}

func (r *memDeletedUserAccounts) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]*models.DeletedUserAccount, error) {
	if err := r.s.faults.check("deleted_user_accounts.FindExpired", ""); err != nil {
		return nil, err
	}
	return expired(r.s.state.DeletedUserAccounts,
		func(v *models.DeletedUserAccount) string { return v.UserAccountID.String() },
		func(v *models.DeletedUserAccount) bool { return v.DeletedAt.Before(cutoff) },
		limit), nil
}

func (r *memDeletedUserAccounts) LockByID(_ context.Context, id uuid.UUID) (*models.DeletedUserAccount, error) {
	if err := r.s.faults.check("deleted_user_accounts.LockByID", id.String()); err != nil {
		return nil, err
	}
	return get(r.s.state.DeletedUserAccounts, id)
}

func (r *memDeletedUserAccounts) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("deleted_user_accounts.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.DeletedUserAccounts, id)
}

type memPwdChangeReqs struct{ s *MemStore }

func (r *memPwdChangeReqs) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]*models.PwdChangeReq, error) {
	if err := r.s.faults.check("pwd_change_reqs.FindExpired", ""); err != nil {
		return nil, err
	}
	return expired(r.s.state.PwdChangeReqs,
		func(v *models.PwdChangeReq) string { return v.PwdChangeReqID },
		func(v *models.PwdChangeReq) bool { return v.RequestedAt.Before(cutoff) },
		limit), nil
}

func (r *memPwdChangeReqs) Delete(_ context.Context, id string) error {
	if err := r.s.faults.check("pwd_change_reqs.Delete", id); err != nil {
		return err
	}
	return deleteKey(r.s.state.PwdChangeReqs, id)
}

type memSettlements struct{ s *MemStore }

func (r *memSettlements) ListByConsultantID(_ context.Context, consultantID uuid.UUID) ([]*models.Settlement, error) {
	if err := r.s.faults.check("settlements.ListByConsultantID", consultantID.String()); err != nil {
		return nil, err
	}
	return expired(r.s.state.Settlements,
		func(v *models.Settlement) string { return v.SettlementID.String() },
		func(v *models.Settlement) bool { return v.ConsultantID == consultantID },
		0), nil
}

func (r *memSettlements) LockByID(_ context.Context, id uuid.UUID) (*models.Settlement, error) {
	if err := r.s.faults.check("settlements.LockByID", id.String()); err != nil {
		return nil, err
	}
	return get(r.s.state.Settlements, id)
}

func (r *memSettlements) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("settlements.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.Settlements, id)
}

type memStoppedSettlements struct{ s *MemStore }

func (r *memStoppedSettlements) Create(_ context.Context, st *models.StoppedSettlement) error {
	if err := r.s.faults.check("stopped_settlements.Create", st.StoppedSettlementID.String()); err != nil {
		return err
	}
	cp := *st
	r.s.state.StoppedSettlements[st.StoppedSettlementID] = &cp
	return nil
}

func (r *memStoppedSettlements) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]*models.StoppedSettlement, error) {
	if err := r.s.faults.check("stopped_settlements.FindExpired", ""); err != nil {
		return nil, err
	}
	return expired(r.s.state.StoppedSettlements,
		func(v *models.StoppedSettlement) string { return v.StoppedSettlementID.String() },
		func(v *models.StoppedSettlement) bool { return v.CreditFacilitiesExpiredAt.Before(cutoff) },
		limit), nil
}

func (r *memStoppedSettlements) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("stopped_settlements.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.StoppedSettlements, id)
}

type memTempMfaSecrets struct{ s *MemStore }

func (r *memTempMfaSecrets) FindExpired(_ context.Context, cutoff time.Time, limit int) ([]*models.TempMfaSecret, error) {
	if err := r.s.faults.check("temp_mfa_secrets.FindExpired", ""); err != nil {
		return nil, err
	}
	return expired(r.s.state.TempMfaSecrets,
		func(v *models.TempMfaSecret) string { return v.TempMfaSecretID.String() },
		func(v *models.TempMfaSecret) bool { return v.ExpiredAt.Before(cutoff) },
		limit), nil
}

func (r *memTempMfaSecrets) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("temp_mfa_secrets.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.TempMfaSecrets, id)
}

type memUserAccounts struct{ s *MemStore }

func (r *memUserAccounts) LockByID(_ context.Context, id uuid.UUID) (*models.UserAccount, error) {
	if err := r.s.faults.check("user_accounts.LockByID", id.String()); err != nil {
		return nil, err
	}
	return get(r.s.state.UserAccounts, id)
}

func (r *memUserAccounts) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("user_accounts.Delete", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.UserAccounts, id)
}

type memIdentities struct{ s *MemStore }

func (r *memIdentities) DeleteByUserAccountID(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("identities.DeleteByUserAccountID", id.String()); err != nil {
		return err
	}
	delete(r.s.state.Identities, id)
	return nil
}

type memCareers struct{ s *MemStore }

func (r *memCareers) ListByUserAccountID(_ context.Context, id uuid.UUID) ([]*models.Career, error) {
	if err := r.s.faults.check("careers.ListByUserAccountID", id.String()); err != nil {
		return nil, err
	}
	return expired(r.s.state.Careers,
		func(v *models.Career) string { return v.CareerID.String() },
		func(v *models.Career) bool { return v.UserAccountID == id },
		0), nil
}

func (r *memCareers) Delete(_ context.Context, careerID uuid.UUID) error {
	if err := r.s.faults.check("careers.Delete", careerID.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.Careers, careerID)
}

type memConsultingFees struct{ s *MemStore }

func (r *memConsultingFees) DeleteByUserAccountID(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("consulting_fees.DeleteByUserAccountID", id.String()); err != nil {
		return err
	}
	delete(r.s.state.ConsultingFees, id)
	return nil
}

type memMfaInfos struct{ s *MemStore }

func (r *memMfaInfos) DeleteByUserAccountID(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("mfa_infos.DeleteByUserAccountID", id.String()); err != nil {
		return err
	}
	delete(r.s.state.MfaInfos, id)
	return nil
}

type memTenants struct{ s *MemStore }

func (r *memTenants) FindByUserAccountID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if err := r.s.faults.check("tenants.FindByUserAccountID", id.String()); err != nil {
		return nil, err
	}
	t, ok := r.s.state.Tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTenants) DeleteByUserAccountID(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("tenants.DeleteByUserAccountID", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.Tenants, id)
}

type memDocuments struct{ s *MemStore }

func (r *memDocuments) LockByUserAccountID(_ context.Context, id uuid.UUID) (*models.ConsultantDocument, error) {
	if err := r.s.faults.check("documents.LockByUserAccountID", id.String()); err != nil {
		return nil, err
	}
	d, ok := r.s.state.Documents[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDocuments) DeleteByUserAccountID(_ context.Context, id uuid.UUID) error {
	if err := r.s.faults.check("documents.DeleteByUserAccountID", id.String()); err != nil {
		return err
	}
	return deleteKey(r.s.state.Documents, id)
}
