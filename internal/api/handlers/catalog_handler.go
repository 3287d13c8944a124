package handlers

import (
	"net/http"

	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) GetStores(c *gin.Context) {
	stores, err := h.catalog.Stores(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch stores", err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *CatalogHandler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.catalog.Suppliers(c.Request.Context())
	if err != nil {
		respondError(c, "failed to fetch suppliers", err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// GetProducts searches by code or description fragment.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 50)
	products, err := h.catalog.Products(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		respondError(c, "failed to fetch products", err)
		return
	}
	c.JSON(http.StatusOK, products)
}
