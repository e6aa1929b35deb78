package httpserver

import (
	"errors"
	"net/http"

	"cartservice/internal/domain"
	"github.com/gin-gonic/gin"
)

type productHandlers struct {
	catalog productCatalog
}

func (h *productHandlers) list(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "total": len(products)})
}

func (h *productHandlers) get(c *gin.Context) {
	product, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, product)
}
