package pipeline

import (
	"errors"
	"math"
	"time"

	"github.com/genovesjohn191/dealfi/internal/models"
)

var ErrStageNotFound = errors.New("stage not found")

// typeTracks maps each lead type to the track that has to finish for the
// lead to count as closed.
var typeTracks = map[models.LeadType]models.Track{
	models.LeadTypePurchase:  models.TrackAgent,
	models.LeadTypeRental:    models.TrackAgent,
	models.LeadTypeSell:      models.TrackAgent,
	models.LeadTypeMortgage:  models.TrackLoan,
	models.LeadTypeHardMoney: models.TrackLoan,
}

// RelevantTracks returns the set of tracks a lead's types bind it to.
// Service-request tracks (appraisal/inspection) never gate closing.
func RelevantTracks(types []models.LeadType) map[models.Track]bool {
	out := map[models.Track]bool{}
	for _, t := range types {
		if tr, ok := typeTracks[t]; ok {
			out[tr] = true
		}
	}
	return out
}

// Progress is what every dashboard shows for one track.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// TrackProgress counts completion within one track. An empty subset is 0%,
// not a division fault.
func TrackProgress(stages []models.Stage, track models.Track) Progress {
	var p Progress
	for _, s := range stages {
		if s.Track != track {
			continue
		}
		p.Total++
		if s.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
	}
	return p
}

// DeriveStatus recomputes a lead's status from its stages and assignments.
// closed iff every stage in the lead's relevant tracks is completed;
// processing once anyone is assigned or anything is done; new otherwise.
// Applied identically everywhere so progress numbers agree across dashboards.
func DeriveStatus(lead *models.Lead) models.LeadStatus {
	relevant := RelevantTracks(lead.Types)

	total, done, anyDone := 0, 0, false
	for _, s := range lead.Stages {
		if s.Completed {
			anyDone = true
		}
		if relevant[s.Track] {
			total++
			if s.Completed {
				done++
			}
		}
	}
	if total > 0 && done == total {
		return models.LeadStatusClosed
	}
	if anyDone || lead.Assigned() {
		return models.LeadStatusProcessing
	}
	return models.LeadStatusNew
}

// ToggleStage flips the completion of one stage in place and keeps the
// completion metadata consistent: set together on complete, cleared together
// on un-complete. Returns the new completed value.
func ToggleStage(stages []models.Stage, stageID string, actor models.StageActor, now time.Time) (bool, error) {
	for i := range stages {
		if stages[i].ID != stageID {
			continue
		}
		if stages[i].Completed {
			stages[i].Completed = false
			stages[i].CompletedAt = nil
			stages[i].CompletedBy = nil
			return false, nil
		}
		at := now
		stages[i].Completed = true
		stages[i].CompletedAt = &at
		stages[i].CompletedBy = &actor
		return true, nil
	}
	return false, ErrStageNotFound
}

// ApplyToggleEffects updates the cross-role work-queue flags after a toggle
// of stageID (nowCompleted is its post-toggle state), then re-derives status.
//
//   - contract_signed completed on a lead that also carries a financing type
//     puts it on the lender queue;
//   - the on-demand appraiser_needed / inspector_needed stages raise their
//     flag when completed and drop it when un-completed.
func ApplyToggleEffects(lead *models.Lead, stageID string, nowCompleted bool) {
	switch stageID {
	case "contract_signed":
		if nowCompleted && (lead.HasType(models.LeadTypeMortgage) || lead.HasType(models.LeadTypeHardMoney)) {
			lead.NeedsLender = true
		}
	case AppraiserNeededStage.ID:
		lead.NeedsAppraiser = nowCompleted
	case InspectorNeededStage.ID:
		lead.NeedsInspector = nowCompleted
	}
	lead.Status = DeriveStatus(lead)
}
