package handlers

import (
	"net/http"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ShelfHandler struct {
	shelves *service.ShelfService
	exports *service.ExportService
}

func NewShelfHandler(shelves *service.ShelfService, exports *service.ExportService) *ShelfHandler {
	return &ShelfHandler{shelves: shelves, exports: exports}
}

func (h *ShelfHandler) Classify(c *gin.Context) {
	var req domain.ShelfRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.shelves.Classify(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to classify shelf", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ShelfHandler) Export(c *gin.Context) {
	format, publish, ok := exportOptions(c)
	if !ok {
		return
	}
	var req domain.ShelfRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.exports.Shelf(c.Request.Context(), req, format, publish)
	if err != nil {
		respondError(c, "failed to export shelf plan", err)
		return
	}
	sendExport(c, file)
}
