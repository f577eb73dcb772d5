package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/pdf"
	"github.com/genovesjohn191/dealfi/internal/pipeline"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

// PlatformSummary is the admin dashboard payload.
type PlatformSummary struct {
	LeadsByStatus    map[string]int `json:"leads_by_status"`
	LeadsByType      map[string]int `json:"leads_by_type"`
	TotalClosedValue float64        `json:"total_closed_value"`
	UserCount        int            `json:"user_count"`
	UsersByRole      map[string]int `json:"users_by_role"`
	AgentQueueSize   int            `json:"agent_queue_size"`
	LenderQueueSize  int            `json:"lender_queue_size"`
}

type ReportService interface {
	Summary() (*PlatformSummary, error)
	LeadReportPDF(lead *models.Lead) (string, error)
	SummaryPDF() (string, error)
}

type reportService struct {
	leads    LeadStore
	userRepo repositories.UserRepository
	gen      pdf.Generator
}

func NewReportService(leads LeadStore, userRepo repositories.UserRepository, gen pdf.Generator) ReportService {
	return &reportService{leads: leads, userRepo: userRepo, gen: gen}
}

var summaryStatuses = []models.LeadStatus{models.LeadStatusNew, models.LeadStatusProcessing, models.LeadStatusClosed}

var summaryTypes = []models.LeadType{
	models.LeadTypePurchase, models.LeadTypeMortgage, models.LeadTypeRental,
	models.LeadTypeHardMoney, models.LeadTypeSell,
}

var summaryRoles = []string{
	authz.RoleBirddog, authz.RoleAgent, authz.RoleLender,
	authz.RoleAppraiser, authz.RoleInspector, authz.RoleInvestor, authz.RoleLead,
}

func (s *reportService) Summary() (*PlatformSummary, error) {
	out := &PlatformSummary{
		LeadsByStatus: make(map[string]int, len(summaryStatuses)),
		LeadsByType:   make(map[string]int, len(summaryTypes)),
		UsersByRole:   make(map[string]int, len(summaryRoles)),
	}

	for _, st := range summaryStatuses {
		n, err := s.leads.CountByStatus(st)
		if err != nil {
			return nil, fmt.Errorf("count status %s: %w", st, err)
		}
		out.LeadsByStatus[string(st)] = n
	}
	for _, t := range summaryTypes {
		n, err := s.leads.CountByType(t)
		if err != nil {
			return nil, fmt.Errorf("count type %s: %w", t, err)
		}
		out.LeadsByType[string(t)] = n
	}

	total, err := s.leads.TotalClosedValue()
	if err != nil {
		return nil, err
	}
	out.TotalClosedValue = total

	out.UserCount, err = s.userRepo.GetCount()
	if err != nil {
		return nil, err
	}
	for _, role := range summaryRoles {
		n, err := s.userRepo.GetCountByRole(role)
		if err != nil {
			return nil, fmt.Errorf("count role %s: %w", role, err)
		}
		out.UsersByRole[role] = n
	}

	agentQueue, err := s.leads.Filter(repositories.LeadFilter{UnassignedAgent: true})
	if err != nil {
		return nil, err
	}
	out.AgentQueueSize = len(agentQueue)

	lenderQueue, err := s.leads.Filter(repositories.LeadFilter{NeedsLender: true})
	if err != nil {
		return nil, err
	}
	out.LenderQueueSize = len(lenderQueue)

	return out, nil
}

func (s *reportService) LeadReportPDF(lead *models.Lead) (string, error) {
	if lead == nil {
		return "", ErrLeadNotFound
	}
	birddog := ""
	if u, err := s.userRepo.GetByID(lead.BirddogID); err == nil && u != nil {
		birddog = u.DisplayName
	}

	relevant := pipeline.RelevantTracks(lead.Types)
	completed, total := 0, 0
	for _, st := range lead.Stages {
		if !relevant[st.Track] {
			continue
		}
		total++
		if st.Completed {
			completed++
		}
	}

	data := pdf.LeadReportData{
		LeadID:    lead.ID,
		LeadName:  strings.TrimSpace(lead.FirstName + " " + lead.LastName),
		Address:   lead.Address,
		Types:     typeStrings(lead.Types),
		Status:    string(lead.Status),
		Birddog:   birddog,
		Completed: completed,
		Total:     total,
		CreatedAt: lead.CreatedAt,
	}
	for _, st := range lead.Stages {
		line := pdf.StageLine{
			Title:       st.Title,
			Track:       string(st.Track),
			Completed:   st.Completed,
			CompletedAt: st.CompletedAt,
		}
		if st.CompletedBy != nil {
			line.CompletedBy = st.CompletedBy.Name
		}
		data.Stages = append(data.Stages, line)
	}
	return s.gen.GenerateLeadReport(data)
}

func (s *reportService) SummaryPDF() (string, error) {
	sum, err := s.Summary()
	if err != nil {
		return "", err
	}

	data := pdf.SummaryReportData{
		Title:       "Dealfi Platform Summary",
		GeneratedAt: time.Now(),
		Sections:    make(map[string][]pdf.SummaryLine),
		Order:       []string{"Leads by status", "Leads by type", "Queues", "Users", "Totals"},
	}
	for _, st := range summaryStatuses {
		data.Sections["Leads by status"] = append(data.Sections["Leads by status"],
			pdf.SummaryLine{Label: string(st), Value: fmt.Sprintf("%d", sum.LeadsByStatus[string(st)])})
	}
	for _, t := range summaryTypes {
		data.Sections["Leads by type"] = append(data.Sections["Leads by type"],
			pdf.SummaryLine{Label: string(t), Value: fmt.Sprintf("%d", sum.LeadsByType[string(t)])})
	}
	data.Sections["Queues"] = []pdf.SummaryLine{
		{Label: "Agent queue", Value: fmt.Sprintf("%d", sum.AgentQueueSize)},
		{Label: "Lender queue", Value: fmt.Sprintf("%d", sum.LenderQueueSize)},
	}
	users := []pdf.SummaryLine{{Label: "Total users", Value: fmt.Sprintf("%d", sum.UserCount)}}
	for _, role := range summaryRoles {
		users = append(users, pdf.SummaryLine{Label: role, Value: fmt.Sprintf("%d", sum.UsersByRole[role])})
	}
	data.Sections["Users"] = users
	data.Sections["Totals"] = []pdf.SummaryLine{
		{Label: "Closed deal value", Value: fmt.Sprintf("$%.2f", sum.TotalClosedValue)},
	}

	return s.gen.GenerateSummaryReport(data)
}

func typeStrings(types []models.LeadType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
