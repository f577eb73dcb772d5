package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/pipeline"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

// maxReferralDepth bounds the upline walk for commission payouts.
const maxReferralDepth = 7

var ErrInviteNotFound = errors.New("referral invite not found")

type ReferralService interface {
	Invite(referrerID int, email, firstName, role string) (*models.ReferralInvite, error)
	ListInvites(referrerID int) ([]*models.ReferralInvite, error)
	Remind(referrerID, inviteID int) error
	Cancel(referrerID, inviteID int) error
	Accept(token string, userID int) (*models.ReferralInvite, error)
	PayoutCommissions(birddogID int, commission float64) error
}

type referralService struct {
	repo     repositories.ReferralRepository
	userRepo repositories.UserRepository
	emails   EmailService
}

func NewReferralService(repo repositories.ReferralRepository, userRepo repositories.UserRepository, emails EmailService) ReferralService {
	return &referralService{repo: repo, userRepo: userRepo, emails: emails}
}

func (s *referralService) Invite(referrerID int, email, firstName, role string) (*models.ReferralInvite, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !authz.ValidRole(role) || authz.IsElevated(role) {
		return nil, fmt.Errorf("invalid invite role: %q", role)
	}
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}

	inv := &models.ReferralInvite{
		ReferrerID: referrerID,
		Email:      email,
		FirstName:  strings.TrimSpace(firstName),
		Role:       role,
		Token:      uuid.NewString(),
		Status:     "pending",
	}
	if err := s.repo.CreateInvite(inv); err != nil {
		return nil, err
	}
	if s.emails != nil {
		if err := s.emails.SendReferralReminder(inv.Email, inv.FirstName, inv.Role); err != nil {
			log.Printf("[referral] failed to send invite email to %s: %v", inv.Email, err)
		}
	}
	return inv, nil
}

func (s *referralService) ListInvites(referrerID int) ([]*models.ReferralInvite, error) {
	return s.repo.ListByReferrer(referrerID)
}

func (s *referralService) Remind(referrerID, inviteID int) error {
	inv, err := s.ownedPendingInvite(referrerID, inviteID)
	if err != nil {
		return err
	}
	if err := s.repo.TouchReminder(inv.ID); err != nil {
		return err
	}
	if s.emails != nil {
		if err := s.emails.SendReferralReminder(inv.Email, inv.FirstName, inv.Role); err != nil {
			log.Printf("[referral] failed to send reminder to %s: %v", inv.Email, err)
		}
	}
	return nil
}

func (s *referralService) Cancel(referrerID, inviteID int) error {
	inv, err := s.ownedPendingInvite(referrerID, inviteID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInvite(inv.ID); err != nil {
		return err
	}
	if s.emails != nil {
		if err := s.emails.SendReferralCancelled(inv.Email, inv.FirstName); err != nil {
			log.Printf("[referral] failed to send cancellation to %s: %v", inv.Email, err)
		}
	}
	return nil
}

// Accept resolves an invite token after the invitee has registered. The
// caller is responsible for having stored referred_by on the new account.
func (s *referralService) Accept(token string, userID int) (*models.ReferralInvite, error) {
	inv, err := s.repo.GetInviteByToken(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}
	if inv.Status != "pending" {
		return nil, fmt.Errorf("invite already %s", inv.Status)
	}
	if err := s.repo.MarkAccepted(inv.ID, userID); err != nil {
		return nil, err
	}
	inv.Status = "accepted"
	inv.AcceptedUserID = &userID
	return inv, nil
}

// PayoutCommissions distributes a closed deal's commission up the
// referrer chain. Level 1 is the birddog's direct referrer.
func (s *referralService) PayoutCommissions(birddogID int, commission float64) error {
	if commission <= 0 {
		return nil
	}
	chain, err := s.repo.ReferrerChain(birddogID, maxReferralDepth)
	if err != nil {
		return err
	}
	for i, referrerID := range chain {
		rate := pipeline.CommissionRateFor(i + 1)
		if rate == 0 {
			break
		}
		payout := commission * rate
		if err := s.userRepo.AddEarnings(referrerID, payout); err != nil {
			return fmt.Errorf("payout to user %d at level %d: %w", referrerID, i+1, err)
		}
		log.Printf("[referral] paid %.2f to user %d (level %d)", payout, referrerID, i+1)
	}
	return nil
}

func (s *referralService) ownedPendingInvite(referrerID, inviteID int) (*models.ReferralInvite, error) {
	inv, err := s.repo.GetInviteByID(inviteID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.ReferrerID != referrerID {
		return nil, ErrInviteNotFound
	}
	if inv.Status != "pending" {
		return nil, fmt.Errorf("invite already %s", inv.Status)
	}
	return inv, nil
}
