package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/services"
)

type UserHandler struct {
	userService     services.UserService
	referralService services.ReferralService
}

func NewUserHandler(userService services.UserService, referralService services.ReferralService) *UserHandler {
	return &UserHandler{userService: userService, referralService: referralService}
}

// RegisterRequest is the signup payload. ReferralToken links the new
// account into an inviter's network.
type RegisterRequest struct {
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	DisplayName   string `json:"display_name" binding:"required"`
	Role          string `json:"role"`
	ReferralToken string `json:"referral_token"`
}

// @Summary      Register an account
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Signup data"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}
	if err := h.userService.Register(user, req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReferralToken != "" {
		inv, err := h.referralService.Accept(req.ReferralToken, user.ID)
		if err != nil {
			// account exists either way, the link is best-effort
			log.Printf("[user][register] referral token rejected for userID=%d: %v", user.ID, err)
		} else {
			user.ReferredBy = &inv.ReferrerID
			if err := h.userService.UpdateProfile(user); err != nil {
				log.Printf("[user][register] store referrer failed for userID=%d: %v", user.ID, err)
			}
		}
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary      Current account
// @Tags         Users
// @Produce      json
// @Success      200  {object}  models.User
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, role := getUserAndRole(c)
	if id != userID && !authz.IsElevated(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	user, err := h.userService.GetUserByID(id)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ProfileUpdateRequest carries the self-editable fields only.
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	user.Phone = req.Phone
	user.Company = req.Company
	user.Bio = req.Bio
	user.Location = req.Location

	if err := h.userService.UpdateProfile(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Complete onboarding
// @Description  Fixes the account role. The choice is final.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Router       /users/me/onboarding [post]
func (h *UserHandler) CompleteOnboarding(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.CompleteOnboarding(userID, req.Role); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, _ := h.userService.GetUserByID(userID)
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) LinkTelegram(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		ChatID int64 `json:"chat_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.LinkTelegram(userID, req.ChatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Telegram linked"})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "100"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}

	users, err := h.userService.ListUsers(size, (page-1)*size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}
