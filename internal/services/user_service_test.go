package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
)

func newTestUserService() (UserService, *mockUserRepo) {
	repo := newMockUserRepo()
	return NewUserService(repo, nil, NewAuthService()), repo
}

func TestRegisterHashesPasswordAndSeedsTokens(t *testing.T) {
	svc, _ := newTestUserService()

	user := &models.User{ID: 1, Email: "New@Example.Com", DisplayName: "Sam"}
	require.NoError(t, svc.Register(user, "hunter22"))

	assert.Equal(t, "new@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.Equal(t, int64(100), user.AvailableTokens)

	auth := NewAuthService()
	assert.True(t, auth.CheckPassword(user.PasswordHash, "hunter22"))
	assert.False(t, auth.CheckPassword(user.PasswordHash, "wrong"))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService()

	assert.Error(t, svc.Register(&models.User{Email: "a@b.com"}, ""))
	assert.Error(t, svc.Register(&models.User{Email: "not-an-email"}, "pw"))
	assert.Error(t, svc.Register(&models.User{Email: "a@b.com", Role: "pirate"}, "pw"))
}

func TestCompleteOnboardingIsFinal(t *testing.T) {
	svc, repo := newTestUserService()
	repo.users[5] = &models.User{ID: 5, Email: "u@example.com"}

	require.NoError(t, svc.CompleteOnboarding(5, authz.RoleLender))
	assert.Equal(t, authz.RoleLender, repo.users[5].Role)
	assert.True(t, repo.users[5].Onboarded)

	// role choice cannot be redone
	assert.Error(t, svc.CompleteOnboarding(5, authz.RoleAgent))
	// and the role must exist
	assert.Error(t, svc.CompleteOnboarding(5, "landlord"))
}
