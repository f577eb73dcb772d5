package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genovesjohn191/dealfi/internal/models"
)

func TestCanToggleTrack(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		track   models.Track
		isOwner bool
		want    bool
	}{
		{"agent on agent track", RoleAgent, models.TrackAgent, false, true},
		{"agent on loan track", RoleAgent, models.TrackLoan, false, false},
		{"lender on loan track", RoleLender, models.TrackLoan, false, true},
		{"lender on agent track", RoleLender, models.TrackAgent, false, false},
		{"appraiser on appraisal track", RoleAppraiser, models.TrackAppraisal, false, true},
		{"inspector on inspection track", RoleInspector, models.TrackInspection, false, true},
		{"birddog on own lead", RoleBirddog, models.TrackLoan, true, true},
		{"birddog on someone else's lead", RoleBirddog, models.TrackAgent, false, false},
		{"admin anywhere", RoleAdmin, models.TrackInspection, false, true},
		{"investor never", RoleInvestor, models.TrackAgent, false, false},
		{"lead never", RoleLead, models.TrackAgent, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanToggleTrack(tt.role, tt.track, tt.isOwner))
		})
	}
}

func TestReadOnlyRoles(t *testing.T) {
	assert.True(t, IsReadOnly(RoleLead))
	assert.True(t, IsReadOnly(RoleInvestor))
	assert.False(t, IsReadOnly(RoleBirddog))
	assert.False(t, IsReadOnly(RoleAdmin))
}

func TestCanAcceptLeads(t *testing.T) {
	for _, role := range []string{RoleAgent, RoleLender, RoleAppraiser, RoleInspector} {
		assert.True(t, CanAcceptLeads(role), role)
	}
	for _, role := range []string{RoleBirddog, RoleInvestor, RoleLead, RoleAdmin} {
		assert.False(t, CanAcceptLeads(role), role)
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleBirddog))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("wholesaler"))
	assert.False(t, ValidRole(""))
}
