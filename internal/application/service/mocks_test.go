package service

import (
	"context"
	"sync"

	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/application/port"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/entity"
	"github.com/Jayaprakash8887/easy-qlaim-sub000/internal/domain/workflow"
)

// mockClaimRepo is an in-memory ClaimRepository with version bookkeeping
type mockClaimRepo struct {
	mu      sync.Mutex
	claims  map[string]*entity.Claim
	history []*entity.HistoryEntry

	updateStatusErr error
	getErr          error
}

func newMockClaimRepo(claims ...*entity.Claim) *mockClaimRepo {
	repo := &mockClaimRepo{claims: make(map[string]*entity.Claim)}
	for _, c := range claims {
		repo.claims[c.ID] = c
	}
	return repo
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[claim.ID] = claim
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	claim, ok := m.claims[id]
	if !ok || claim.TenantID != tenantID {
		return nil, port.ErrNotFound
	}
	copied := *claim
	return &copied, nil
}

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.Status, canEdit bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	claim, ok := m.claims[id]
	if !ok {
		return port.ErrNotFound
	}
	if claim.Version != expectedVersion {
		return port.ErrConflict
	}
	claim.Status = status
	claim.CanEdit = canEdit
	claim.Version++
	return nil
}

func (m *mockClaimRepo) SetSettled(ctx context.Context, id string, expectedVersion int64, paymentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	claim, ok := m.claims[id]
	if !ok {
		return port.ErrNotFound
	}
	if claim.Version != expectedVersion {
		return port.ErrConflict
	}
	claim.Status = workflow.StatusSettled
	claim.PaymentReference = paymentRef
	claim.Version++
	return nil
}

func (m *mockClaimRepo) UpdateSkipInfo(ctx context.Context, id string, info *entity.SkipInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	claim, ok := m.claims[id]
	if !ok {
		return port.ErrNotFound
	}
	claim.SkipInfo = info
	return nil
}

func (m *mockClaimRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Claim
	for _, c := range m.claims {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClaimRepo) AppendHistory(ctx context.Context, e *entity.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, e)
	return nil
}

func (m *mockClaimRepo) GetHistory(ctx context.Context, claimID string) ([]*entity.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.HistoryEntry
	for _, e := range m.history {
		if e.ClaimID == claimID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockSettingRepo serves canned settings and counts reads
type mockSettingRepo struct {
	mu       sync.Mutex
	settings map[string]map[string]string
	getCalls int
	getErr   error
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{settings: make(map[string]map[string]string)}
}

func (m *mockSettingRepo) set(tenantID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings[tenantID] == nil {
		m.settings[tenantID] = make(map[string]string)
	}
	m.settings[tenantID][key] = value
}

func (m *mockSettingRepo) GetSettings(ctx context.Context, tenantID string, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.settings[tenantID][k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mockSettingRepo) UpsertSetting(ctx context.Context, tenantID, key, value string) error {
	m.set(tenantID, key, value)
	return nil
}

// mockSkipRuleRepo serves a fixed rule list
type mockSkipRuleRepo struct {
	rules   []*entity.SkipRule
	listErr error
}

func (m *mockSkipRuleRepo) ListActiveByPriority(ctx context.Context, tenantID string) ([]*entity.SkipRule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*entity.SkipRule
	for _, r := range m.rules {
		if r.TenantID == tenantID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSkipRuleRepo) Create(ctx context.Context, rule *entity.SkipRule) error {
	m.rules = append(m.rules, rule)
	return nil
}

func (m *mockSkipRuleRepo) Deactivate(ctx context.Context, tenantID, ruleID string) error {
	for _, r := range m.rules {
		if r.TenantID == tenantID && r.ID == ruleID {
			r.IsActive = false
			return nil
		}
	}
	return port.ErrNotFound
}

// mockRecordRepo collects approval records
type mockRecordRepo struct {
	mu      sync.Mutex
	records []*entity.ApprovalRecord
}

func (m *mockRecordRepo) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *mockRecordRepo) GetByClaimID(ctx context.Context, claimID string) ([]*entity.ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ApprovalRecord
	for _, r := range m.records {
		if r.ClaimID == claimID {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockExecLogRepo collects execution log entries
type mockExecLogRepo struct {
	mu      sync.Mutex
	entries []*entity.ExecutionLogEntry
}

func (m *mockExecLogRepo) Append(ctx context.Context, e *entity.ExecutionLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockExecLogRepo) GetByClaimID(ctx context.Context, claimID string) ([]*entity.ExecutionLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ExecutionLogEntry
	for _, e := range m.entries {
		if e.ClaimID == claimID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExecLogRepo) last() *entity.ExecutionLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[len(m.entries)-1]
}

// passthroughTx runs the function without a real transaction
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	_ port.ClaimRepository          = (*mockClaimRepo)(nil)
	_ port.SettingRepository        = (*mockSettingRepo)(nil)
	_ port.SkipRuleRepository       = (*mockSkipRuleRepo)(nil)
	_ port.ApprovalRecordRepository = (*mockRecordRepo)(nil)
	_ port.ExecutionLogRepository   = (*mockExecLogRepo)(nil)
	_ port.TransactionManager       = passthroughTx{}
)
