package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genovesjohn191/dealfi/internal/models"
)

func TestAggregateRequiresTypes(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoLeadTypes)
}

func TestAggregateSingleType(t *testing.T) {
	stages, err := Aggregate([]models.LeadType{models.LeadTypeMortgage})
	require.NoError(t, err)
	assert.Len(t, stages, 7)
	for _, s := range stages {
		assert.False(t, s.Completed)
		assert.Nil(t, s.CompletedAt)
		assert.Nil(t, s.CompletedBy)
	}
}

func TestAggregateDedupsAcrossTypes(t *testing.T) {
	// purchase and sell share six stage ids (agent_accepted, the two common
	// stages, contract_signed, closing_scheduled, deal_closed)
	stages, err := Aggregate([]models.LeadType{models.LeadTypePurchase, models.LeadTypeSell})
	require.NoError(t, err)
	assert.Len(t, stages, 14)

	seen := map[string]int{}
	for _, s := range stages {
		seen[s.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "stage %s appears %d times", id, n)
	}
}

func TestAggregateFirstOccurrenceWins(t *testing.T) {
	stages, err := Aggregate([]models.LeadType{models.LeadTypeSell, models.LeadTypePurchase})
	require.NoError(t, err)

	// the sell catalog leads, so its first twelve ids come first in order
	sell, _ := StagesFor(models.LeadTypeSell)
	for i, tpl := range sell {
		assert.Equal(t, tpl.ID, stages[i].ID)
	}
}

func TestAggregateBound(t *testing.T) {
	all := []models.LeadType{
		models.LeadTypePurchase, models.LeadTypeMortgage, models.LeadTypeRental,
		models.LeadTypeHardMoney, models.LeadTypeSell,
	}
	stages, err := Aggregate(all)
	require.NoError(t, err)

	sum := 0
	for _, lt := range all {
		tpl, _ := StagesFor(lt)
		sum += len(tpl)
	}
	assert.LessOrEqual(t, len(stages), sum)
	assert.Greater(t, len(stages), 0)
}

func TestAggregateRejectsUnknownType(t *testing.T) {
	_, err := Aggregate([]models.LeadType{models.LeadTypePurchase, "flipping"})
	assert.Error(t, err)
}

func TestNeedsLenderAtCreation(t *testing.T) {
	assert.True(t, NeedsLenderAtCreation([]models.LeadType{models.LeadTypePurchase}, false))
	assert.False(t, NeedsLenderAtCreation([]models.LeadType{models.LeadTypePurchase}, true))
	assert.False(t, NeedsLenderAtCreation([]models.LeadType{models.LeadTypeSell}, false))
	assert.False(t, NeedsLenderAtCreation(nil, false))
}
