package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
)

// mockReferralRepo keeps invites in memory and serves a fixed upline chain.
type mockReferralRepo struct {
	invites   map[int]*models.ReferralInvite
	nextID    int
	chain     []int
	reminders []int
}

func newMockReferralRepo() *mockReferralRepo {
	return &mockReferralRepo{invites: map[int]*models.ReferralInvite{}, nextID: 1}
}

func (r *mockReferralRepo) CreateInvite(inv *models.ReferralInvite) error {
	inv.ID = r.nextID
	r.nextID++
	r.invites[inv.ID] = inv
	return nil
}

func (r *mockReferralRepo) GetInviteByID(id int) (*models.ReferralInvite, error) {
	return r.invites[id], nil
}

func (r *mockReferralRepo) GetInviteByToken(token string) (*models.ReferralInvite, error) {
	for _, inv := range r.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, nil
}

func (r *mockReferralRepo) ListByReferrer(referrerID int) ([]*models.ReferralInvite, error) {
	var out []*models.ReferralInvite
	for _, inv := range r.invites {
		if inv.ReferrerID == referrerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *mockReferralRepo) TouchReminder(id int) error {
	r.reminders = append(r.reminders, id)
	return nil
}

func (r *mockReferralRepo) MarkAccepted(id, userID int) error {
	inv := r.invites[id]
	inv.Status = "accepted"
	inv.AcceptedUserID = &userID
	return nil
}

func (r *mockReferralRepo) DeleteInvite(id int) error {
	delete(r.invites, id)
	return nil
}

func (r *mockReferralRepo) ReferrerChain(_, maxDepth int) ([]int, error) {
	if len(r.chain) > maxDepth {
		return r.chain[:maxDepth], nil
	}
	return r.chain, nil
}

func newTestReferralService() (ReferralService, *mockReferralRepo, *mockUserRepo) {
	repo := newMockReferralRepo()
	users := newMockUserRepo(
		&models.User{ID: 1, Email: "bd@example.com", Role: authz.RoleBirddog},
	)
	svc := NewReferralService(repo, users, nil)
	return svc, repo, users
}

func TestInviteCreatesPendingToken(t *testing.T) {
	svc, _, _ := newTestReferralService()

	inv, err := svc.Invite(1, "New.Person@Example.com", "Sam", authz.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatus("pending"), inv.Status)
	assert.Equal(t, "new.person@example.com", inv.Email)
	assert.NotEmpty(t, inv.Token)
}

func TestInviteRejectsBadRole(t *testing.T) {
	svc, _, _ := newTestReferralService()

	_, err := svc.Invite(1, "a@example.com", "A", "wizard")
	assert.Error(t, err)
	_, err = svc.Invite(1, "a@example.com", "A", authz.RoleAdmin)
	assert.Error(t, err)
}

func TestRemindAndCancelOwnership(t *testing.T) {
	svc, repo, _ := newTestReferralService()
	inv, err := svc.Invite(1, "a@example.com", "A", authz.RoleAgent)
	require.NoError(t, err)

	// not the inviter's own invite
	assert.ErrorIs(t, svc.Remind(2, inv.ID), ErrInviteNotFound)
	assert.ErrorIs(t, svc.Cancel(2, inv.ID), ErrInviteNotFound)

	require.NoError(t, svc.Remind(1, inv.ID))
	assert.Equal(t, []int{inv.ID}, repo.reminders)

	require.NoError(t, svc.Cancel(1, inv.ID))
	assert.Empty(t, repo.invites)
}

func TestAcceptMarksInvite(t *testing.T) {
	svc, _, _ := newTestReferralService()
	inv, err := svc.Invite(1, "a@example.com", "A", authz.RoleAgent)
	require.NoError(t, err)

	accepted, err := svc.Accept(inv.Token, 42)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatus("accepted"), accepted.Status)
	require.NotNil(t, accepted.AcceptedUserID)
	assert.Equal(t, 42, *accepted.AcceptedUserID)

	// second use of the same token fails
	_, err = svc.Accept(inv.Token, 43)
	assert.Error(t, err)

	_, err = svc.Accept("no-such-token", 44)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestPayoutCommissionsWalksChain(t *testing.T) {
	svc, repo, users := newTestReferralService()
	repo.chain = []int{10, 20, 30}

	require.NoError(t, svc.PayoutCommissions(1, 10000))

	assert.Equal(t, 1000.0, users.earnings[10]) // level 1: 10%
	assert.Equal(t, 500.0, users.earnings[20])  // level 2: 5%
	assert.Equal(t, 300.0, users.earnings[30])  // level 3: 3%
}

func TestPayoutCommissionsSkipsZeroCommission(t *testing.T) {
	svc, repo, users := newTestReferralService()
	repo.chain = []int{10}

	require.NoError(t, svc.PayoutCommissions(1, 0))
	assert.Empty(t, users.earnings)
}
