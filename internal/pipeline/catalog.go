package pipeline

import (
	"fmt"

	"github.com/genovesjohn191/dealfi/internal/models"
)

// StageTemplate is one catalog entry: id, display title and the track that
// owns it. Templates are defined once and referenced by value.
type StageTemplate struct {
	ID    string
	Title string
	Track models.Track
}

// On-demand service-request stages. They are not part of any type catalog;
// an agent or lender appends them when outside work is needed.
var (
	AppraiserNeededStage = StageTemplate{ID: "appraiser_needed", Title: "Appraiser Needed", Track: models.TrackAppraisal}
	InspectorNeededStage = StageTemplate{ID: "inspector_needed", Title: "Inspector Needed", Track: models.TrackInspection}
)

var commonStages = []StageTemplate{
	{ID: "initial_contact", Title: "Initial Contact Made", Track: models.TrackAgent},
	{ID: "requirements_gathered", Title: "Requirements Gathered", Track: models.TrackAgent},
}

var purchaseStages = concat(
	[]StageTemplate{{ID: "agent_accepted", Title: "Agent Accepted Lead", Track: models.TrackAgent}},
	commonStages,
	[]StageTemplate{
		{ID: "property_search", Title: "Property Search Started", Track: models.TrackAgent},
		{ID: "offer_made", Title: "Offer Made", Track: models.TrackAgent},
		{ID: "contract_signed", Title: "Contract Signed", Track: models.TrackAgent},
		{ID: "closing_scheduled", Title: "Closing Scheduled", Track: models.TrackAgent},
		{ID: "deal_closed", Title: "Deal Closed", Track: models.TrackAgent},
	},
)

var mortgageStages = []StageTemplate{
	{ID: "lender_accepted", Title: "Lender Accepted Lead", Track: models.TrackLoan},
	{ID: "pre_approval", Title: "Pre-Approval Started", Track: models.TrackLoan},
	{ID: "documents_collected", Title: "Documents Collected", Track: models.TrackLoan},
	{ID: "application_submitted", Title: "Application Submitted", Track: models.TrackLoan},
	{ID: "underwriting", Title: "Underwriting in Progress", Track: models.TrackLoan},
	{ID: "conditions_cleared", Title: "Conditions Cleared", Track: models.TrackLoan},
	{ID: "approved", Title: "Loan Approved", Track: models.TrackLoan},
}

var rentalStages = concat(
	[]StageTemplate{{ID: "agent_accepted", Title: "Agent Accepted Lead", Track: models.TrackAgent}},
	commonStages,
	[]StageTemplate{
		{ID: "property_search", Title: "Property Search Started", Track: models.TrackAgent},
		{ID: "showings_scheduled", Title: "Showings Scheduled", Track: models.TrackAgent},
		{ID: "application_submitted", Title: "Application Submitted", Track: models.TrackAgent},
		{ID: "background_check", Title: "Background Check Completed", Track: models.TrackAgent},
		{ID: "lease_signed", Title: "Lease Signed", Track: models.TrackAgent},
		{ID: "move_in_scheduled", Title: "Move-in Scheduled", Track: models.TrackAgent},
	},
)

var hardmoneyStages = []StageTemplate{
	{ID: "lender_accepted", Title: "Lender Accepted Lead", Track: models.TrackLoan},
	{ID: "property_details", Title: "Property Details Collected", Track: models.TrackLoan},
	{ID: "underwriting", Title: "Underwriting in Progress", Track: models.TrackLoan},
	{ID: "valuation_completed", Title: "Property Valuation Completed", Track: models.TrackLoan},
	{ID: "terms_proposed", Title: "Loan Terms Proposed", Track: models.TrackLoan},
	{ID: "application_submitted", Title: "Application Submitted", Track: models.TrackLoan},
	{ID: "approved", Title: "Loan Approved", Track: models.TrackLoan},
}

var sellStages = concat(
	[]StageTemplate{{ID: "agent_accepted", Title: "Agent Accepted Lead", Track: models.TrackAgent}},
	commonStages,
	[]StageTemplate{
		{ID: "property_evaluation", Title: "Property Evaluation Completed", Track: models.TrackAgent},
		{ID: "listing_agreement", Title: "Listing Agreement Signed", Track: models.TrackAgent},
		{ID: "photos_marketing", Title: "Photos and Marketing Ready", Track: models.TrackAgent},
		{ID: "listed_mls", Title: "Listed on MLS", Track: models.TrackAgent},
		{ID: "showings_started", Title: "Showings Started", Track: models.TrackAgent},
		{ID: "offer_received", Title: "Offer Received", Track: models.TrackAgent},
		{ID: "contract_signed", Title: "Contract Signed", Track: models.TrackAgent},
		{ID: "closing_scheduled", Title: "Closing Scheduled", Track: models.TrackAgent},
		{ID: "deal_closed", Title: "Deal Closed", Track: models.TrackAgent},
	},
)

var catalog = map[models.LeadType][]StageTemplate{
	models.LeadTypePurchase:  purchaseStages,
	models.LeadTypeMortgage:  mortgageStages,
	models.LeadTypeRental:    rentalStages,
	models.LeadTypeHardMoney: hardmoneyStages,
	models.LeadTypeSell:      sellStages,
}

// StagesFor returns the ordered checklist template for a lead type. The order
// is the workflow sequence used for progress display; completion itself is an
// unordered set operation.
func StagesFor(t models.LeadType) ([]StageTemplate, error) {
	tpl, ok := catalog[t]
	if !ok {
		return nil, fmt.Errorf("invalid lead type: %q", t)
	}
	out := make([]StageTemplate, len(tpl))
	copy(out, tpl)
	return out, nil
}

func concat(parts ...[]StageTemplate) []StageTemplate {
	var out []StageTemplate
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
