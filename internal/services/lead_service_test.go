package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/pipeline"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

// memLeadStore is an in-memory LeadStore with the same version semantics as
// the SQL repository: reads hand out copies, guarded writes compare versions.
type memLeadStore struct {
	leads     map[int]*models.Lead
	nextID    int
	available map[int]int64
	locked    map[int]int64
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{
		leads:     map[int]*models.Lead{},
		nextID:    1,
		available: map[int]int64{},
		locked:    map[int]int64{},
	}
}

func cloneLead(l *models.Lead) *models.Lead {
	b, _ := json.Marshal(l)
	out := &models.Lead{}
	_ = json.Unmarshal(b, out)
	return out
}

func (s *memLeadStore) Create(lead *models.Lead) error {
	lead.ID = s.nextID
	s.nextID++
	lead.Version = 1
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (s *memLeadStore) CreateWithStake(lead *models.Lead, amount int64) error {
	if s.available[lead.BirddogID] < amount {
		return repositories.ErrInsufficientTokens
	}
	s.available[lead.BirddogID] -= amount
	s.locked[lead.BirddogID] += amount
	return s.Create(lead)
}

func (s *memLeadStore) GetByID(id int) (*models.Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return nil, nil
	}
	return cloneLead(l), nil
}

func (s *memLeadStore) UpdateGuarded(lead *models.Lead) error {
	stored, ok := s.leads[lead.ID]
	if !ok || stored.Version != lead.Version {
		return repositories.ErrVersionConflict
	}
	lead.Version++
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (s *memLeadStore) SettleStake(lead *models.Lead, unlock, returned int64) error {
	stored, ok := s.leads[lead.ID]
	if !ok || stored.Version != lead.Version {
		return repositories.ErrVersionConflict
	}
	s.locked[lead.BirddogID] -= unlock
	s.available[lead.BirddogID] += returned
	lead.Version++
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (s *memLeadStore) Filter(f repositories.LeadFilter) ([]*models.Lead, error) {
	var out []*models.Lead
	for _, l := range s.leads {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.BirddogID > 0 && l.BirddogID != f.BirddogID {
			continue
		}
		if f.NeedsLender && (!l.NeedsLender || l.AssignedLenderID != nil) {
			continue
		}
		if f.UnassignedAgent && l.AssignedAgentID != nil {
			continue
		}
		out = append(out, cloneLead(l))
	}
	return out, nil
}

func (s *memLeadStore) CountByStatus(status models.LeadStatus) (int, error) {
	n := 0
	for _, l := range s.leads {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *memLeadStore) CountByType(t models.LeadType) (int, error) {
	n := 0
	for _, l := range s.leads {
		if l.HasType(t) {
			n++
		}
	}
	return n, nil
}

func (s *memLeadStore) TotalClosedValue() (float64, error) {
	total := 0.0
	for _, l := range s.leads {
		if l.Status == models.LeadStatusClosed && l.Value != nil {
			total += *l.Value
		}
	}
	return total, nil
}

// mockUserRepo keeps users in a map; only what the lead service touches.
type mockUserRepo struct {
	users    map[int]*models.User
	earnings map[int]float64
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	r := &mockUserRepo{users: map[int]*models.User{}, earnings: map[int]float64{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) Create(u *models.User) error { r.users[u.ID] = u; return nil }

func (r *mockUserRepo) GetByID(id int) (*models.User, error) { return r.users[id], nil }
func (r *mockUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (r *mockUserRepo) Update(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *mockUserRepo) UpdatePassword(userID int, hash string) error {
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = hash
	}
	return nil
}
func (r *mockUserRepo) Delete(int) error { return nil }

func (r *mockUserRepo) List(int, int) ([]*models.User, error) { return nil, nil }

func (r *mockUserRepo) GetCount() (int, error) { return len(r.users), nil }

func (r *mockUserRepo) GetCountByRole(string) (int, error) { return 0, nil }

func (r *mockUserRepo) UpdateRefresh(int, string, time.Time) error { return nil }
func (r *mockUserRepo) RotateRefresh(string, string, time.Time) (*models.User, error) {
	return nil, nil
}

func (r *mockUserRepo) ClearRefresh(int) error { return nil }

func (r *mockUserRepo) AddEarnings(userID int, amount float64) error {
	r.earnings[userID] += amount
	return nil
}

func (r *mockUserRepo) UpdateTelegramChat(int, int64) error { return nil }

// fakeReferrals records payout calls.
type fakeReferrals struct {
	payouts []float64
}

func (f *fakeReferrals) Invite(int, string, string, string) (*models.ReferralInvite, error) {
	return nil, nil
}
func (f *fakeReferrals) ListInvites(int) ([]*models.ReferralInvite, error) { return nil, nil }
func (f *fakeReferrals) Remind(int, int) error                             { return nil }
func (f *fakeReferrals) Cancel(int, int) error                             { return nil }
func (f *fakeReferrals) Accept(string, int) (*models.ReferralInvite, error) {
	return nil, nil
}
func (f *fakeReferrals) PayoutCommissions(_ int, commission float64) error {
	f.payouts = append(f.payouts, commission)
	return nil
}

func newTestLeadService() (*LeadService, *memLeadStore, *mockUserRepo, *fakeReferrals) {
	store := newMemLeadStore()
	users := newMockUserRepo(
		&models.User{ID: 1, Email: "bd@example.com", DisplayName: "Billie Birddog", Role: authz.RoleBirddog, Reputation: 3},
		&models.User{ID: 2, Email: "ag@example.com", DisplayName: "Dana Agent", Role: authz.RoleAgent},
		&models.User{ID: 3, Email: "ln@example.com", DisplayName: "Lee Lender", Role: authz.RoleLender},
	)
	referrals := &fakeReferrals{}
	svc := NewLeadService(store, users, nil, nil, referrals)
	return svc, store, users, referrals
}

func newLeadInput(types ...models.LeadType) *models.Lead {
	return &models.Lead{
		FirstName: "Pat",
		LastName:  "Client",
		Email:     "pat@example.com",
		Types:     types,
		BirddogID: 1,
	}
}

func TestCreateAggregatesAndDerives(t *testing.T) {
	svc, _, _, _ := newTestLeadService()

	lead := newLeadInput(models.LeadTypePurchase, models.LeadTypeMortgage)
	require.NoError(t, svc.Create(lead, 0))

	assert.NotZero(t, lead.ID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Len(t, lead.Stages, 15) // 8 purchase + 7 mortgage, no shared ids
	assert.True(t, lead.NeedsLender)
	assert.Equal(t, 3, lead.BirddogReputation)
	assert.Nil(t, lead.ConfidenceStake)
}

func TestCreateCashDealSkipsLenderQueue(t *testing.T) {
	svc, _, _, _ := newTestLeadService()

	lead := newLeadInput(models.LeadTypePurchase)
	lead.IsCashDeal = true
	require.NoError(t, svc.Create(lead, 0))
	assert.False(t, lead.NeedsLender)
}

func TestCreateRejectsEmptyTypes(t *testing.T) {
	svc, _, _, _ := newTestLeadService()
	err := svc.Create(newLeadInput(), 0)
	assert.ErrorIs(t, err, pipeline.ErrNoLeadTypes)
}

func TestCreateWithStakeLocksTokens(t *testing.T) {
	svc, store, _, _ := newTestLeadService()
	store.available[1] = 100

	lead := newLeadInput(models.LeadTypeSell)
	require.NoError(t, svc.Create(lead, 40))

	require.NotNil(t, lead.ConfidenceStake)
	assert.Equal(t, int64(40), lead.ConfidenceStake.Amount)
	assert.Equal(t, models.StakeStatusActive, lead.ConfidenceStake.Status)
	assert.Equal(t, "BIRDFI", lead.ConfidenceStake.TokenID)
	assert.Equal(t, int64(60), store.available[1])
	assert.Equal(t, int64(40), store.locked[1])
}

func TestCreateWithStakeInsufficientBalance(t *testing.T) {
	svc, store, _, _ := newTestLeadService()
	store.available[1] = 10

	err := svc.Create(newLeadInput(models.LeadTypeSell), 40)
	assert.ErrorIs(t, err, repositories.ErrInsufficientTokens)
	// nothing moved
	assert.Equal(t, int64(10), store.available[1])
	assert.Zero(t, store.locked[1])
}

func TestToggleStageAuthz(t *testing.T) {
	svc, _, _, _ := newTestLeadService()
	lead := newLeadInput(models.LeadTypePurchase)
	require.NoError(t, svc.Create(lead, 0))

	lender := models.StageActor{ID: 3, Name: "Lee Lender", Role: authz.RoleLender}
	_, err := svc.ToggleStage(lead.ID, "offer_made", lender)
	assert.ErrorIs(t, err, ErrForbidden)

	// the owning birddog may toggle any track on their own lead
	owner := models.StageActor{ID: 1, Name: "Billie Birddog", Role: authz.RoleBirddog}
	updated, err := svc.ToggleStage(lead.ID, "offer_made", owner)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusProcessing, updated.Status)
}

func TestToggleStageVersionConflict(t *testing.T) {
	svc, store, _, _ := newTestLeadService()
	lead := newLeadInput(models.LeadTypePurchase)
	require.NoError(t, svc.Create(lead, 0))

	agent := models.StageActor{ID: 2, Name: "Dana Agent", Role: authz.RoleAgent}

	// another writer lands between this caller's read and write
	stale, err := store.GetByID(lead.ID)
	require.NoError(t, err)
	concurrent, err := store.GetByID(lead.ID)
	require.NoError(t, err)
	require.NoError(t, store.UpdateGuarded(concurrent))

	err = store.UpdateGuarded(stale)
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)

	// the service path still works against the fresh version
	_, err = svc.ToggleStage(lead.ID, "initial_contact", agent)
	require.NoError(t, err)
}

func TestCloseLeadUpdatesBirddogAndPaysReferrals(t *testing.T) {
	svc, store, users, referrals := newTestLeadService()
	lead := newLeadInput(models.LeadTypePurchase)
	require.NoError(t, svc.Create(lead, 0))

	// record the agreed commission on the stored lead
	stored, _ := store.GetByID(lead.ID)
	commission := 5000.0
	stored.Commission = &commission
	require.NoError(t, store.UpdateGuarded(stored))

	agent := models.StageActor{ID: 2, Name: "Dana Agent", Role: authz.RoleAgent}
	var last *models.Lead
	for _, s := range stored.Stages {
		var err error
		last, err = svc.ToggleStage(lead.ID, s.ID, agent)
		require.NoError(t, err)
	}

	assert.Equal(t, models.LeadStatusClosed, last.Status)
	birddog, _ := users.GetByID(1)
	assert.Equal(t, 4, birddog.Reputation)
	assert.Equal(t, 1, birddog.TotalDeals)
	require.Len(t, referrals.payouts, 1)
	assert.Equal(t, 5000.0, referrals.payouts[0])
}

func TestAcceptLead(t *testing.T) {
	svc, _, _, _ := newTestLeadService()
	lead := newLeadInput(models.LeadTypePurchase)
	require.NoError(t, svc.Create(lead, 0))

	agent := models.StageActor{ID: 2, Name: "Dana Agent", Role: authz.RoleAgent}
	updated, err := svc.AcceptLead(lead.ID, agent)
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedAgentID)
	assert.Equal(t, 2, *updated.AssignedAgentID)
	assert.Equal(t, models.LeadStatusProcessing, updated.Status)
	for _, s := range updated.Stages {
		if s.ID == "agent_accepted" {
			assert.True(t, s.Completed)
		}
	}

	// the slot is first-come-first-served
	other := models.StageActor{ID: 9, Name: "Avery Agent", Role: authz.RoleAgent}
	_, err = svc.AcceptLead(lead.ID, other)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// a birddog cannot claim work
	_, err = svc.AcceptLead(lead.ID, models.StageActor{ID: 1, Role: authz.RoleBirddog})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRequestServiceIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestLeadService()
	lead := newLeadInput(models.LeadTypePurchase)
	require.NoError(t, svc.Create(lead, 0))

	first, err := svc.RequestService(lead.ID, models.TrackAppraisal, authz.RoleAgent)
	require.NoError(t, err)
	again, err := svc.RequestService(lead.ID, models.TrackAppraisal, authz.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, len(first.Stages), len(again.Stages))

	_, err = svc.RequestService(lead.ID, models.TrackAgent, authz.RoleAgent)
	assert.Error(t, err)

	_, err = svc.RequestService(lead.ID, models.TrackInspection, authz.RoleBirddog)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSettleStake(t *testing.T) {
	svc, store, users, _ := newTestLeadService()
	store.available[1] = 100

	lead := newLeadInput(models.LeadTypeSell)
	require.NoError(t, svc.Create(lead, 50))

	// partial return: 30 of 50 come back, the rest is forfeit
	updated, err := svc.SettleStake(lead.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StakeStatusPartiallyReturned, updated.ConfidenceStake.Status)
	assert.Equal(t, int64(30), updated.ConfidenceStake.ReturnedAmount)
	assert.Equal(t, int64(80), store.available[1])
	assert.Zero(t, store.locked[1])

	// a settled stake cannot be settled again
	_, err = svc.SettleStake(lead.ID, 10)
	assert.ErrorIs(t, err, ErrStakeNotActive)

	// burn path
	store.available[1] = 40
	burn := newLeadInput(models.LeadTypeSell)
	require.NoError(t, svc.Create(burn, 40))
	burned, err := svc.SettleStake(burn.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StakeStatusBurned, burned.ConfidenceStake.Status)

	birddog, _ := users.GetByID(1)
	assert.Equal(t, 1, birddog.FailedStakes)
}

func TestAssignFolderOwnerOnly(t *testing.T) {
	svc, _, _, _ := newTestLeadService()
	lead := newLeadInput(models.LeadTypeRental)
	require.NoError(t, svc.Create(lead, 0))

	folderID := 12
	_, err := svc.AssignFolder(lead.ID, &folderID, 2)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.AssignFolder(lead.ID, &folderID, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.FolderID)
	assert.Equal(t, 12, *updated.FolderID)

	updated, err = svc.AssignFolder(lead.ID, nil, 1)
	require.NoError(t, err)
	assert.Nil(t, updated.FolderID)
}
