package handlers

import (
	"net/http"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/export"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgets *service.BudgetService
	exports *service.ExportService
}

func NewBudgetHandler(budgets *service.BudgetService, exports *service.ExportService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, exports: exports}
}

func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req domain.BudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.budgets.Budget(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to build budget", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recompute applies planner overrides and returns the adjusted lines with
// before/after totals.
func (h *BudgetHandler) Recompute(c *gin.Context) {
	var req domain.OverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	adj, err := h.budgets.Recompute(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to recompute budget", err)
		return
	}
	c.JSON(http.StatusOK, adj)
}

func (h *BudgetHandler) Compliance(c *gin.Context) {
	var req domain.OverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.budgets.Compliance(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to analyze compliance", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *BudgetHandler) ExportBudget(c *gin.Context) {
	format, publish, ok := exportOptions(c)
	if !ok {
		return
	}
	var req domain.OverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.exports.Budget(c.Request.Context(), req, format, publish)
	if err != nil {
		respondError(c, "failed to export budget", err)
		return
	}
	sendExport(c, file)
}

func (h *BudgetHandler) ExportCompliance(c *gin.Context) {
	format, publish, ok := exportOptions(c)
	if !ok {
		return
	}
	var req domain.OverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.exports.Compliance(c.Request.Context(), req, format, publish)
	if err != nil {
		respondError(c, "failed to export compliance", err)
		return
	}
	sendExport(c, file)
}

func exportOptions(c *gin.Context) (export.Format, bool, bool) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, "unsupported export format", err)
		return "", false, false
	}
	return format, parseBool(c.Query("publish")), true
}

// sendExport streams the file, or describes where it was published.
func sendExport(c *gin.Context, file *service.ExportFile) {
	if file.Published != nil {
		c.JSON(http.StatusCreated, gin.H{
			"filename": file.Filename(),
			"key":      file.Published.Key,
			"url":      file.Published.URL,
		})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename()+`"`)
	c.Data(http.StatusOK, file.ContentType(), file.Data)
}
