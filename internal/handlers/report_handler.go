package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/services"
)

type ReportHandler struct {
	Service services.ReportService
	Leads   *services.LeadService
	RootDir string // where generated PDFs land
}

func NewReportHandler(service services.ReportService, leads *services.LeadService, rootDir string) *ReportHandler {
	return &ReportHandler{Service: service, Leads: leads, RootDir: rootDir}
}

// @Summary      Platform summary
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  services.PlatformSummary
// @Router       /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	sum, err := h.Service.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// SummaryPDF renders the summary to a PDF and streams it back.
func (h *ReportHandler) SummaryPDF(c *gin.Context) {
	path, err := h.Service.SummaryPDF()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}
	h.serveFile(c, path)
}

// LeadReportPDF renders one lead's progress report.
func (h *ReportHandler) LeadReportPDF(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	userID, role := getUserAndRole(c)

	lead, err := h.Leads.GetByID(id)
	if err != nil || lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if !canViewLead(lead, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	path, err := h.Service.LeadReportPDF(lead)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}
	h.serveFile(c, path)
}

func (h *ReportHandler) serveFile(c *gin.Context, path string) {
	name := filepath.Base(path)
	c.FileAttachment(filepath.Join(h.RootDir, name), name)
}
