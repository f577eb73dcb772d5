package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/services"
)

type ReferralHandler struct {
	Service services.ReferralService
}

func NewReferralHandler(service services.ReferralService) *ReferralHandler {
	return &ReferralHandler{Service: service}
}

type InviteRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	Role      string `json:"role" binding:"required"`
}

// @Summary      Invite someone into your network
// @Tags         Referrals
// @Accept       json
// @Produce      json
// @Param        body  body      InviteRequest  true  "Invite data"
// @Success      201   {object}  models.ReferralInvite
// @Failure      400   {object}  map[string]string
// @Router       /referrals [post]
func (h *ReferralHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := getUserAndRole(c)

	inv, err := h.Service.Invite(userID, req.Email, req.FirstName, req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *ReferralHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	invites, err := h.Service.ListInvites(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invites"})
		return
	}
	c.JSON(http.StatusOK, invites)
}

func (h *ReferralHandler) Remind(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)

	if err := h.Service.Remind(userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder sent"})
}

func (h *ReferralHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)

	if err := h.Service.Cancel(userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReferralHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInviteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
