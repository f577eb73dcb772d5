package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/pipeline"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

var (
	ErrLeadNotFound   = errors.New("lead not found")
	ErrForbidden      = errors.New("forbidden")
	ErrSlotTaken      = errors.New("lead already has an assignee for this role")
	ErrStakeNotActive = errors.New("no active stake on this lead")
)

// stakeTokenSymbol is the platform token stakes are denominated in.
const stakeTokenSymbol = "BIRDFI"

type LeadService struct {
	Store     LeadStore
	Users     repositories.UserRepository
	Emails    EmailService
	Telegram  *TelegramService
	Referrals ReferralService
}

func NewLeadService(store LeadStore, users repositories.UserRepository, emails EmailService, telegram *TelegramService, referrals ReferralService) *LeadService {
	return &LeadService{Store: store, Users: users, Emails: emails, Telegram: telegram, Referrals: referrals}
}

// Create validates the submission, aggregates the stage checklist from the
// selected types and persists the lead. A positive stakeAmount locks tokens
// on the birddog's balance in the same transaction as the insert.
//
// Notification emails are sent after the write commits and never affect its
// outcome.
func (s *LeadService) Create(lead *models.Lead, stakeAmount int64) error {
	if err := validateLeadInput(lead); err != nil {
		return err
	}

	stages, err := pipeline.Aggregate(lead.Types)
	if err != nil {
		return err
	}
	lead.Stages = stages
	lead.NeedsLender = pipeline.NeedsLenderAtCreation(lead.Types, lead.IsCashDeal)
	lead.Status = models.LeadStatusNew
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}

	birddog, err := s.Users.GetByID(lead.BirddogID)
	if err != nil || birddog == nil {
		return fmt.Errorf("birddog %d not found", lead.BirddogID)
	}
	lead.BirddogReputation = birddog.Reputation

	if stakeAmount > 0 {
		lead.ConfidenceStake = &models.ConfidenceStake{
			ID:        uuid.NewString(),
			Amount:    stakeAmount,
			TokenID:   stakeTokenSymbol,
			Status:    models.StakeStatusActive,
			CreatedAt: time.Now(),
		}
		if err := s.Store.CreateWithStake(lead, stakeAmount); err != nil {
			return err
		}
	} else {
		if err := s.Store.Create(lead); err != nil {
			return err
		}
	}

	s.notifyCreated(birddog, lead)
	return nil
}

// notifyCreated fires the two post-creation emails: confirmation to the
// birddog, welcome to the client. Failures are logged, never returned.
func (s *LeadService) notifyCreated(birddog *models.User, lead *models.Lead) {
	if s.Emails == nil {
		return
	}
	if err := s.Emails.SendLeadSubmissionConfirmation(birddog.Email, lead); err != nil {
		log.Printf("[lead][create] warning: confirmation email to %s failed: %v", birddog.Email, err)
	}
	if err := s.Emails.SendLeadWelcomeEmail(lead); err != nil {
		log.Printf("[lead][create] warning: welcome email to %s failed: %v", lead.Email, err)
	}
}

func (s *LeadService) GetByID(id int) (*models.Lead, error) {
	return s.Store.GetByID(id)
}

func (s *LeadService) List(f repositories.LeadFilter) ([]*models.Lead, error) {
	return s.Store.Filter(f)
}

// ToggleStage flips one checklist item for the acting user. The write is
// guarded by the lead's version: a concurrent edit surfaces as
// repositories.ErrVersionConflict instead of silently overwriting it.
func (s *LeadService) ToggleStage(leadID int, stageID string, actor models.StageActor) (*models.Lead, error) {
	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	stage := findStage(lead.Stages, stageID)
	if stage == nil {
		return nil, pipeline.ErrStageNotFound
	}
	isOwner := lead.BirddogID == actor.ID
	if !authz.CanToggleTrack(actor.Role, stage.Track, isOwner) {
		return nil, ErrForbidden
	}

	completed, err := pipeline.ToggleStage(lead.Stages, stageID, actor, time.Now())
	if err != nil {
		return nil, err
	}
	wasClosed := lead.Status == models.LeadStatusClosed
	pipeline.ApplyToggleEffects(lead, stageID, completed)

	if err := s.Store.UpdateGuarded(lead); err != nil {
		return nil, err
	}

	if lead.Status == models.LeadStatusClosed && !wasClosed {
		s.onLeadClosed(lead)
	}
	if completed {
		s.notifyStage(lead, stage.Title, actor.Name)
	}
	return lead, nil
}

// AcceptLead claims a lead for the acting role. Each role writes only its
// own assignment slot; claiming also checks off the matching *_accepted
// stage when the checklist has one and pulls the lead off that role's queue.
func (s *LeadService) AcceptLead(leadID int, actor models.StageActor) (*models.Lead, error) {
	if !authz.CanAcceptLeads(actor.Role) {
		return nil, ErrForbidden
	}
	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	var slot **int
	var acceptedStage string
	switch actor.Role {
	case authz.RoleAgent:
		slot, acceptedStage = &lead.AssignedAgentID, "agent_accepted"
	case authz.RoleLender:
		slot, acceptedStage = &lead.AssignedLenderID, "lender_accepted"
	case authz.RoleAppraiser:
		slot = &lead.AssignedAppraiserID
		lead.NeedsAppraiser = false
	case authz.RoleInspector:
		slot = &lead.AssignedInspectorID
		lead.NeedsInspector = false
	}
	if *slot != nil {
		return nil, ErrSlotTaken
	}
	id := actor.ID
	*slot = &id

	if acceptedStage != "" {
		if st := findStage(lead.Stages, acceptedStage); st != nil && !st.Completed {
			// complete, don't toggle: accepting twice must not un-complete
			if _, err := pipeline.ToggleStage(lead.Stages, acceptedStage, actor, time.Now()); err != nil {
				return nil, err
			}
		}
	}
	lead.Status = pipeline.DeriveStatus(lead)

	if err := s.Store.UpdateGuarded(lead); err != nil {
		return nil, err
	}
	s.notifyAccepted(lead, actor)
	return lead, nil
}

// RequestService appends the on-demand appraiser/inspector stage so the
// responsible role can later complete it and flag the work queue.
func (s *LeadService) RequestService(leadID int, track models.Track, actorRole string) (*models.Lead, error) {
	var tpl pipeline.StageTemplate
	switch track {
	case models.TrackAppraisal:
		tpl = pipeline.AppraiserNeededStage
	case models.TrackInspection:
		tpl = pipeline.InspectorNeededStage
	default:
		return nil, fmt.Errorf("no service-request stage for track %q", track)
	}
	if actorRole != authz.RoleAgent && actorRole != authz.RoleLender && actorRole != authz.RoleAdmin {
		return nil, ErrForbidden
	}

	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	if findStage(lead.Stages, tpl.ID) != nil {
		return lead, nil // already requested
	}
	lead.Stages = append(lead.Stages, models.Stage{ID: tpl.ID, Title: tpl.Title, Track: tpl.Track})
	if err := s.Store.UpdateGuarded(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// SubmitStageReport attaches a work report (appraisal, inspection) to a
// stage the actor's role owns.
func (s *LeadService) SubmitStageReport(leadID int, stageID, content string, actor models.StageActor) (*models.Lead, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("report content is required")
	}
	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	stage := findStage(lead.Stages, stageID)
	if stage == nil {
		return nil, pipeline.ErrStageNotFound
	}
	if !authz.CanToggleTrack(actor.Role, stage.Track, lead.BirddogID == actor.ID) {
		return nil, ErrForbidden
	}
	stage.Report = &models.StageReport{
		Content:     content,
		SubmittedAt: time.Now(),
		SubmittedBy: actor,
	}
	if err := s.Store.UpdateGuarded(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// AssignFolder files a birddog's own lead into one of their folders.
// folderID nil removes it from any folder.
func (s *LeadService) AssignFolder(leadID int, folderID *int, userID int) (*models.Lead, error) {
	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	if lead.BirddogID != userID {
		return nil, ErrForbidden
	}
	lead.FolderID = folderID
	if err := s.Store.UpdateGuarded(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// SettleStake resolves an active confidence stake: the full locked amount is
// unlocked and `returned` tokens go back to the birddog's balance. Zero
// returned burns the stake.
func (s *LeadService) SettleStake(leadID int, returned int64) (*models.Lead, error) {
	lead, err := s.Store.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	cs := lead.ConfidenceStake
	if cs == nil || cs.Status != models.StakeStatusActive {
		return nil, ErrStakeNotActive
	}
	if returned < 0 || returned > cs.Amount {
		return nil, fmt.Errorf("returned amount must be within 0..%d", cs.Amount)
	}

	cs.ReturnedAmount = returned
	if returned == 0 {
		cs.Status = models.StakeStatusBurned
	} else {
		cs.Status = models.StakeStatusPartiallyReturned
	}
	if err := s.Store.SettleStake(lead, cs.Amount, returned); err != nil {
		return nil, err
	}

	if birddog, err := s.Users.GetByID(lead.BirddogID); err == nil && birddog != nil {
		if returned == cs.Amount {
			birddog.SuccessfulStakes++
		} else if returned == 0 {
			birddog.FailedStakes++
		}
		if err := s.Users.Update(birddog); err != nil {
			log.Printf("[lead][stake] warning: update stake counters for user %d: %v", birddog.ID, err)
		}
	}
	return lead, nil
}

func (s *LeadService) onLeadClosed(lead *models.Lead) {
	birddog, err := s.Users.GetByID(lead.BirddogID)
	if err != nil || birddog == nil {
		log.Printf("[lead][close] warning: birddog %d not found", lead.BirddogID)
		return
	}
	birddog.Reputation++
	birddog.TotalDeals++
	if err := s.Users.Update(birddog); err != nil {
		log.Printf("[lead][close] warning: update birddog %d: %v", birddog.ID, err)
	}

	if s.Referrals != nil && lead.Commission != nil {
		if err := s.Referrals.PayoutCommissions(lead.BirddogID, *lead.Commission); err != nil {
			log.Printf("[lead][close] warning: referral payouts for birddog %d: %v", lead.BirddogID, err)
		}
	}
}

func (s *LeadService) notifyStage(lead *models.Lead, stageTitle, actorName string) {
	if s.Telegram == nil {
		return
	}
	if birddog, err := s.Users.GetByID(lead.BirddogID); err == nil && birddog != nil {
		s.Telegram.NotifyStageCompleted(birddog.TelegramChatID, lead.FirstName+" "+lead.LastName, stageTitle, actorName)
	}
}

func (s *LeadService) notifyAccepted(lead *models.Lead, actor models.StageActor) {
	if s.Telegram == nil {
		return
	}
	if birddog, err := s.Users.GetByID(lead.BirddogID); err == nil && birddog != nil {
		s.Telegram.NotifyLeadAccepted(birddog.TelegramChatID, lead.FirstName+" "+lead.LastName, actor.Role, actor.Name)
	}
}

func validateLeadInput(lead *models.Lead) error {
	if len(lead.Types) == 0 {
		return pipeline.ErrNoLeadTypes
	}
	if strings.TrimSpace(lead.FirstName) == "" || strings.TrimSpace(lead.LastName) == "" {
		return errors.New("first and last name are required")
	}
	email := strings.TrimSpace(lead.Email)
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("a valid email is required")
	}
	return nil
}

func findStage(stages []models.Stage, id string) *models.Stage {
	for i := range stages {
		if stages[i].ID == id {
			return &stages[i]
		}
	}
	return nil
}
