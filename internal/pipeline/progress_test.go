package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genovesjohn191/dealfi/internal/models"
)

var testActor = models.StageActor{ID: 7, Name: "Dana Agent", Role: "agent"}

func purchaseLead(t *testing.T) *models.Lead {
	t.Helper()
	stages, err := Aggregate([]models.LeadType{models.LeadTypePurchase})
	require.NoError(t, err)
	return &models.Lead{
		Types:  []models.LeadType{models.LeadTypePurchase},
		Stages: stages,
		Status: models.LeadStatusNew,
	}
}

func TestToggleStageSetsAndClearsMetadata(t *testing.T) {
	lead := purchaseLead(t)
	now := time.Now()

	done, err := ToggleStage(lead.Stages, "offer_made", testActor, now)
	require.NoError(t, err)
	assert.True(t, done)

	var st *models.Stage
	for i := range lead.Stages {
		if lead.Stages[i].ID == "offer_made" {
			st = &lead.Stages[i]
		}
	}
	require.NotNil(t, st)
	assert.True(t, st.Completed)
	require.NotNil(t, st.CompletedAt)
	assert.Equal(t, now, *st.CompletedAt)
	require.NotNil(t, st.CompletedBy)
	assert.Equal(t, testActor, *st.CompletedBy)

	// second toggle reverts and clears everything together
	done, err = ToggleStage(lead.Stages, "offer_made", testActor, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, st.Completed)
	assert.Nil(t, st.CompletedAt)
	assert.Nil(t, st.CompletedBy)
}

func TestToggleStageUnknownID(t *testing.T) {
	lead := purchaseLead(t)
	_, err := ToggleStage(lead.Stages, "no_such_stage", testActor, time.Now())
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestTrackProgressEmptySubsetIsZero(t *testing.T) {
	lead := purchaseLead(t)
	// a purchase lead has no loan-track stages
	p := TrackProgress(lead.Stages, models.TrackLoan)
	assert.Equal(t, 0, p.Total)
	assert.Equal(t, 0, p.Completed)
	assert.Equal(t, 0, p.Percentage)
}

func TestTrackProgressCounts(t *testing.T) {
	lead := purchaseLead(t)
	now := time.Now()
	for _, id := range []string{"agent_accepted", "initial_contact"} {
		_, err := ToggleStage(lead.Stages, id, testActor, now)
		require.NoError(t, err)
	}
	p := TrackProgress(lead.Stages, models.TrackAgent)
	assert.Equal(t, 8, p.Total)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 25, p.Percentage)
}

func TestDeriveStatusLifecycle(t *testing.T) {
	lead := purchaseLead(t)
	assert.Equal(t, models.LeadStatusNew, DeriveStatus(lead))

	// assignment alone moves the lead to processing
	agentID := 7
	lead.AssignedAgentID = &agentID
	assert.Equal(t, models.LeadStatusProcessing, DeriveStatus(lead))
	lead.AssignedAgentID = nil

	// a single completion does the same
	now := time.Now()
	_, err := ToggleStage(lead.Stages, "agent_accepted", testActor, now)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusProcessing, DeriveStatus(lead))

	// closed only once every relevant-track stage is complete
	for _, s := range lead.Stages {
		if !s.Completed {
			_, err := ToggleStage(lead.Stages, s.ID, testActor, now)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, models.LeadStatusClosed, DeriveStatus(lead))

	// reverting one stage reopens the lead
	_, err = ToggleStage(lead.Stages, "deal_closed", testActor, now)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusProcessing, DeriveStatus(lead))
}

func TestDeriveStatusIgnoresServiceTracks(t *testing.T) {
	lead := purchaseLead(t)
	lead.Stages = append(lead.Stages, models.Stage{
		ID: AppraiserNeededStage.ID, Title: AppraiserNeededStage.Title, Track: AppraiserNeededStage.Track,
	})

	now := time.Now()
	for _, s := range lead.Stages {
		if s.Track == models.TrackAgent {
			_, err := ToggleStage(lead.Stages, s.ID, testActor, now)
			require.NoError(t, err)
		}
	}
	// the pending appraisal stage must not hold the close
	assert.Equal(t, models.LeadStatusClosed, DeriveStatus(lead))
}

func TestApplyToggleEffectsContractSigned(t *testing.T) {
	stages, err := Aggregate([]models.LeadType{models.LeadTypePurchase, models.LeadTypeMortgage})
	require.NoError(t, err)
	lead := &models.Lead{
		Types:  []models.LeadType{models.LeadTypePurchase, models.LeadTypeMortgage},
		Stages: stages,
	}

	_, err = ToggleStage(lead.Stages, "contract_signed", testActor, time.Now())
	require.NoError(t, err)
	ApplyToggleEffects(lead, "contract_signed", true)

	assert.True(t, lead.NeedsLender)
	assert.Equal(t, models.LeadStatusProcessing, lead.Status)
}

func TestApplyToggleEffectsContractSignedWithoutFinancing(t *testing.T) {
	lead := purchaseLead(t)
	_, err := ToggleStage(lead.Stages, "contract_signed", testActor, time.Now())
	require.NoError(t, err)
	ApplyToggleEffects(lead, "contract_signed", true)
	assert.False(t, lead.NeedsLender)
}

func TestApplyToggleEffectsServiceFlags(t *testing.T) {
	lead := purchaseLead(t)
	lead.Stages = append(lead.Stages, models.Stage{
		ID: InspectorNeededStage.ID, Title: InspectorNeededStage.Title, Track: InspectorNeededStage.Track,
	})

	now := time.Now()
	_, err := ToggleStage(lead.Stages, InspectorNeededStage.ID, testActor, now)
	require.NoError(t, err)
	ApplyToggleEffects(lead, InspectorNeededStage.ID, true)
	assert.True(t, lead.NeedsInspector)

	_, err = ToggleStage(lead.Stages, InspectorNeededStage.ID, testActor, now)
	require.NoError(t, err)
	ApplyToggleEffects(lead, InspectorNeededStage.ID, false)
	assert.False(t, lead.NeedsInspector)
}
