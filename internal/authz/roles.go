package authz

import "github.com/genovesjohn191/dealfi/internal/models"

const (
	RoleBirddog   = "birddog"
	RoleAgent     = "agent"
	RoleLender    = "lender"
	RoleAppraiser = "appraiser"
	RoleInspector = "inspector"
	RoleInvestor  = "investor"
	RoleLead      = "lead"
	RoleAdmin     = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleBirddog, RoleAgent, RoleLender, RoleAppraiser, RoleInspector, RoleInvestor, RoleLead, RoleAdmin:
		return true
	}
	return false
}

// IsReadOnly: leads see their own pipeline, investors browse; neither writes.
func IsReadOnly(role string) bool {
	return role == RoleLead || role == RoleInvestor
}

func IsElevated(role string) bool {
	return role == RoleAdmin
}

// roleTracks scopes stage toggles: a role may only check off stages on the
// tracks it works.
var roleTracks = map[string]map[models.Track]bool{
	RoleAgent:     {models.TrackAgent: true},
	RoleLender:    {models.TrackLoan: true},
	RoleAppraiser: {models.TrackAppraisal: true},
	RoleInspector: {models.TrackInspection: true},
}

// CanToggleTrack reports whether role may toggle a stage on the given track.
// Admins may toggle anything; a birddog may toggle anything on their own
// lead (ownership is checked by the caller).
func CanToggleTrack(role string, track models.Track, isOwner bool) bool {
	if role == RoleAdmin {
		return true
	}
	if role == RoleBirddog {
		return isOwner
	}
	tracks, ok := roleTracks[role]
	return ok && tracks[track]
}

// assignmentRoles: the roles that claim leads off a work queue. Each writes
// only its own assignment slot on the lead.
var assignmentRoles = map[string]bool{
	RoleAgent:     true,
	RoleLender:    true,
	RoleAppraiser: true,
	RoleInspector: true,
}

func CanAcceptLeads(role string) bool {
	return assignmentRoles[role]
}
