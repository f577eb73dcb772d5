package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/services"
)

type FolderHandler struct {
	Service services.FolderService
}

func NewFolderHandler(service services.FolderService) *FolderHandler {
	return &FolderHandler{Service: service}
}

type FolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *FolderHandler) Create(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := getUserAndRole(c)

	folder, err := h.Service.Create(userID, req.Name, req.Color)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (h *FolderHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	folders, err := h.Service.List(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list folders"})
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *FolderHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := getUserAndRole(c)

	folder, err := h.Service.Rename(userID, id, req.Name, req.Color)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *FolderHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, _ := getUserAndRole(c)

	if err := h.Service.Delete(userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FolderHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrFolderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
