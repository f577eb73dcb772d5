package models

import "time"

// LeadType is the service a lead is asking for. Closed set.
type LeadType string

const (
	LeadTypeMortgage  LeadType = "mortgage"
	LeadTypeRental    LeadType = "rental"
	LeadTypeHardMoney LeadType = "hardmoney"
	LeadTypePurchase  LeadType = "purchase"
	LeadTypeSell      LeadType = "sell"
)

// Track groups stages by the role that works them. Assigned once in the
// catalog, never inferred from stage ids at runtime.
type Track string

const (
	TrackAgent      Track = "agent"
	TrackLoan       Track = "loan"
	TrackAppraisal  Track = "appraisal"
	TrackInspection Track = "inspection"
)

type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusProcessing LeadStatus = "processing"
	LeadStatusClosed     LeadStatus = "closed"
)

// StageActor identifies who checked a stage off.
type StageActor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type StageReport struct {
	Content     string     `json:"content"`
	SubmittedAt time.Time  `json:"submitted_at"`
	SubmittedBy StageActor `json:"submitted_by"`
}

// Stage is one checklist item of a lead's workflow.
// CompletedAt/CompletedBy are set iff Completed is true.
type Stage struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Track       Track        `json:"track"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CompletedBy *StageActor  `json:"completed_by,omitempty"`
	Fee         *float64     `json:"fee,omitempty"`
	Report      *StageReport `json:"report,omitempty"`
}

type StakeStatus string

const (
	StakeStatusActive            StakeStatus = "active"
	StakeStatusBurned            StakeStatus = "burned"
	StakeStatusPartiallyReturned StakeStatus = "partially_returned"
)

// ConfidenceStake is an optional token lock a birddog places against a lead.
type ConfidenceStake struct {
	ID             string      `json:"id"`
	Amount         int64       `json:"amount"`
	TokenID        string      `json:"token_id"`
	Status         StakeStatus `json:"status"`
	ReturnedAmount int64       `json:"returned_amount,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Lead is the aggregate entity. It is the sole owner of its stage list;
// every write goes through read-full / compute / write-full with a version
// compare-and-swap in the repository.
type Lead struct {
	ID        int        `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Notes     string     `json:"notes,omitempty"`
	Types     []LeadType `json:"types"`
	Stages    []Stage    `json:"stages"`
	Status    LeadStatus `json:"status"`

	BirddogID int  `json:"birddog_id"`
	FolderID  *int `json:"folder_id,omitempty"`

	AssignedAgentID     *int `json:"assigned_agent_id,omitempty"`
	AssignedLenderID    *int `json:"assigned_lender_id,omitempty"`
	AssignedAppraiserID *int `json:"assigned_appraiser_id,omitempty"`
	AssignedInspectorID *int `json:"assigned_inspector_id,omitempty"`

	NeedsLender    bool `json:"needs_lender"`
	NeedsAppraiser bool `json:"needs_appraiser"`
	NeedsInspector bool `json:"needs_inspector"`
	IsCashDeal     bool `json:"is_cash_deal"`

	Value             *float64         `json:"value,omitempty"`
	Commission        *float64         `json:"commission,omitempty"`
	ConfidenceStake   *ConfidenceStake `json:"confidence_stake,omitempty"`
	BirddogReputation int              `json:"birddog_reputation"`
	DealsClosedScore  int              `json:"deals_closed_score,omitempty"`
	TotalDealsValue   float64          `json:"total_deals_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version backs the optimistic write guard; bumped by every update.
	Version int `json:"version"`
}

// Assigned reports whether any role has picked the lead up.
func (l *Lead) Assigned() bool {
	return l.AssignedAgentID != nil || l.AssignedLenderID != nil ||
		l.AssignedAppraiserID != nil || l.AssignedInspectorID != nil
}

// HasType reports membership of t in the lead's selected types.
func (l *Lead) HasType(t LeadType) bool {
	for _, lt := range l.Types {
		if lt == t {
			return true
		}
	}
	return false
}
