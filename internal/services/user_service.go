package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

// startingTokens is the token balance a new account is seeded with.
const startingTokens = 100

type UserService interface {
	Register(user *models.User, plainPassword string) error
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateProfile(user *models.User) error
	CompleteOnboarding(userID int, role string) error
	DeleteUser(id int) error
	ListUsers(limit, offset int) ([]*models.User, error)
	GetUserCount() (int, error)
	GetUserCountByRole(role string) (int, error)
	LinkTelegram(userID int, chatID int64) error

	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

// Register hashes the password, seeds the token balance and stores the
// account. The welcome email is best-effort.
func (s *userService) Register(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}
	email := strings.TrimSpace(strings.ToLower(user.Email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	user.Email = email
	if user.Role != "" && !authz.ValidRole(user.Role) {
		return fmt.Errorf("unknown role %q", user.Role)
	}

	hashedPassword, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword
	if user.AvailableTokens == 0 {
		user.AvailableTokens = startingTokens
	}

	if err := s.repo.Create(user); err != nil {
		return err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.DisplayName); err != nil {
			// warn but do not fail creation
			log.Printf("Register: warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return nil
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *userService) UpdateProfile(user *models.User) error {
	return s.repo.Update(user)
}

// CompleteOnboarding fixes the account's role. Role choice is final: a
// stage-track ACL hangs off it.
func (s *userService) CompleteOnboarding(userID int, role string) error {
	if !authz.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	user, err := s.repo.GetByID(userID)
	if err != nil || user == nil {
		return fmt.Errorf("user not found")
	}
	if user.Onboarded {
		return fmt.Errorf("onboarding already completed")
	}
	user.Role = role
	user.Onboarded = true
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int) error {
	return s.repo.Delete(id)
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}

func (s *userService) GetUserCount() (int, error) {
	return s.repo.GetCount()
}

func (s *userService) GetUserCountByRole(role string) (int, error) {
	return s.repo.GetCountByRole(role)
}

func (s *userService) LinkTelegram(userID int, chatID int64) error {
	return s.repo.UpdateTelegramChat(userID, chatID)
}

func (s *userService) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(userID, token, expiresAt)
}

func (s *userService) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return s.repo.RotateRefresh(oldToken, newToken, newExpiresAt)
}

func (s *userService) ClearRefresh(userID int) error {
	return s.repo.ClearRefresh(userID)
}
