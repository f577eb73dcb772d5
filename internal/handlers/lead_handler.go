package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/pipeline"
	"github.com/genovesjohn191/dealfi/internal/repositories"
	"github.com/genovesjohn191/dealfi/internal/services"
)

type LeadHandler struct {
	Service     *services.LeadService
	userService services.UserService
}

func NewLeadHandler(service *services.LeadService, userService services.UserService) *LeadHandler {
	return &LeadHandler{Service: service, userService: userService}
}

// CreateLeadRequest is the submission payload. StakeAmount above zero locks
// that many tokens on the submitter's balance in the same transaction.
type CreateLeadRequest struct {
	FirstName   string   `json:"first_name" binding:"required"`
	LastName    string   `json:"last_name" binding:"required"`
	Email       string   `json:"email" binding:"required"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Notes       string   `json:"notes"`
	Types       []string `json:"types" binding:"required"`
	IsCashDeal  bool     `json:"is_cash_deal"`
	StakeAmount int64    `json:"stake_amount"`
}

// @Summary      Submit a lead
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        body  body      CreateLeadRequest  true  "Lead data"
// @Success      201   {object}  models.Lead
// @Failure      400   {object}  map[string]string
// @Failure      402   {object}  map[string]string
// @Router       /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, role := getUserAndRole(c)
	if role != authz.RoleBirddog && !authz.IsElevated(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only birddogs submit leads"})
		return
	}

	lead := &models.Lead{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		Notes:      req.Notes,
		IsCashDeal: req.IsCashDeal,
		BirddogID:  userID, // owner comes from the token, never the body
	}
	for _, t := range req.Types {
		lead.Types = append(lead.Types, models.LeadType(t))
	}

	if err := h.Service.Create(lead, req.StakeAmount); err != nil {
		if errors.Is(err, repositories.ErrInsufficientTokens) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient token balance for stake"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, role := getUserAndRole(c)

	lead, err := h.Service.GetByID(id)
	if err != nil || lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if !canViewLead(lead, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// List scopes results by role: birddogs see their own submissions, working
// roles see their assignments, elevated roles and investors see everything.
func (h *LeadHandler) List(c *gin.Context) {
	userID, role := getUserAndRole(c)

	f := repositories.LeadFilter{
		Status: models.LeadStatus(c.Query("status")),
		Type:   models.LeadType(c.Query("type")),
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "100"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}
	f.Limit, f.Offset = size, (page-1)*size

	switch {
	case authz.IsElevated(role), role == authz.RoleInvestor:
		// unscoped
	case role == authz.RoleBirddog:
		f.BirddogID = userID
	case role == authz.RoleAgent:
		f.AssignedAgentID = userID
	case role == authz.RoleLender:
		f.AssignedLenderID = userID
	default:
		f.BirddogID = userID
	}

	leads, err := h.Service.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// Queue serves the per-role work queues of unclaimed leads.
func (h *LeadHandler) Queue(c *gin.Context) {
	_, role := getUserAndRole(c)

	var f repositories.LeadFilter
	switch role {
	case authz.RoleAgent:
		f.UnassignedAgent = true
	case authz.RoleLender:
		f.NeedsLender = true
	case authz.RoleAppraiser:
		f.NeedsAppraiser = true
	case authz.RoleInspector:
		f.NeedsInspector = true
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "no work queue for this role"})
		return
	}

	leads, err := h.Service.List(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list queue"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// @Summary      Toggle a stage
// @Description  Flips one checklist item. A concurrent edit of the same lead
// @Description  returns 409 and the client should re-read and retry.
// @Tags         Leads
// @Produce      json
// @Success      200  {object}  models.Lead
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /leads/{id}/stages/{stageID}/toggle [patch]
func (h *LeadHandler) ToggleStage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	stageID := c.Param("stageID")

	actor, ok := h.actorFromCtx(c)
	if !ok {
		return
	}

	lead, err := h.Service.ToggleStage(id, stageID, actor)
	if err != nil {
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) Accept(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	actor, ok := h.actorFromCtx(c)
	if !ok {
		return
	}

	lead, err := h.Service.AcceptLead(id, actor)
	if err != nil {
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) RequestService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	_, role := getUserAndRole(c)

	var req struct {
		Track string `json:"track" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.Service.RequestService(id, models.Track(req.Track), role)
	if err != nil {
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) SubmitReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	stageID := c.Param("stageID")

	actor, ok := h.actorFromCtx(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.Service.SubmitStageReport(id, stageID, req.Content, actor)
	if err != nil {
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) AssignFolder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)

	var req struct {
		FolderID *int `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.Service.AssignFolder(id, req.FolderID, userID)
	if err != nil {
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) SettleStake(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req struct {
		Returned int64 `json:"returned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.Service.SettleStake(id, req.Returned)
	if err != nil {
		if errors.Is(err, services.ErrStakeNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.writeLeadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Progress reports per-track completion for one lead.
func (h *LeadHandler) Progress(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, role := getUserAndRole(c)

	lead, err := h.Service.GetByID(id)
	if err != nil || lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if !canViewLead(lead, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	out := gin.H{"status": lead.Status}
	for _, track := range []models.Track{models.TrackAgent, models.TrackLoan, models.TrackAppraisal, models.TrackInspection} {
		p := pipeline.TrackProgress(lead.Stages, track)
		if p.Total > 0 {
			out[string(track)] = p
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LeadHandler) actorFromCtx(c *gin.Context) (models.StageActor, bool) {
	userID, role := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return models.StageActor{}, false
	}
	return models.StageActor{ID: userID, Name: user.DisplayName, Role: role}, true
}

func (h *LeadHandler) writeLeadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLeadNotFound), errors.Is(err, pipeline.ErrStageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSlotTaken), errors.Is(err, repositories.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// canViewLead: the owner, anyone assigned, elevated roles and read-only
// browsing roles may read a lead.
func canViewLead(lead *models.Lead, userID int, role string) bool {
	if authz.IsElevated(role) || authz.IsReadOnly(role) {
		return true
	}
	if lead.BirddogID == userID {
		return true
	}
	for _, slot := range []*int{lead.AssignedAgentID, lead.AssignedLenderID, lead.AssignedAppraiserID, lead.AssignedInspectorID} {
		if slot != nil && *slot == userID {
			return true
		}
	}
	// working roles may inspect queue items before claiming them
	return authz.CanAcceptLeads(role)
}
