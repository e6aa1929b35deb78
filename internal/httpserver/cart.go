package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"cartservice/internal/domain"
	cartsvc "cartservice/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cartHandlers struct {
	svc    cartService
	tokens *cartsvc.TokenIssuer
	logger *log.Logger
}

type createCartRequest struct {
	OwnerID string `json:"ownerId"`
}

type addItemRequest struct {
	ProductID       string `json:"productId" binding:"required"`
	Quantity        int    `json:"quantity"`
	Attributes      string `json:"attributes"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

type updateQuantityRequest struct {
	Quantity        *int   `json:"quantity" binding:"required"`
	Attributes      string `json:"attributes"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

type applyCouponRequest struct {
	Code            string `json:"code" binding:"required"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

type versionedRequest struct {
	ExpectedVersion int64 `json:"expectedVersion"`
}

// createCart issues a fresh cart key. Callers that already have a key
// (a session id, a user id) use POST /carts/:cartKey instead.
func (h *cartHandlers) createCart(c *gin.Context) {
	var req createCartRequest
	_ = c.ShouldBindJSON(&req)

	cartKey := uuid.NewString()
	var owner *string
	if strings.TrimSpace(req.OwnerID) != "" {
		owner = &req.OwnerID
	}
	cart, err := h.svc.GetOrCreate(c.Request.Context(), cartKey, owner)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusCreated, cart)
}

func (h *cartHandlers) getOrCreate(c *gin.Context) {
	cartKey := c.Param("cartKey")
	var req createCartRequest
	_ = c.ShouldBindJSON(&req)

	var owner *string
	if strings.TrimSpace(req.OwnerID) != "" {
		owner = &req.OwnerID
	}
	cart, err := h.svc.GetOrCreate(c.Request.Context(), cartKey, owner)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) getCart(c *gin.Context) {
	cartKey := c.Param("cartKey")
	cart, err := h.svc.Get(c.Request.Context(), cartKey)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) addItem(c *gin.Context) {
	cartKey := c.Param("cartKey")
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}
	expected, ok := h.expectedVersion(c, cartKey, req.ExpectedVersion)
	if !ok {
		return
	}
	cart, err := h.svc.AddItem(c.Request.Context(), cartKey, req.ProductID, req.Quantity, req.Attributes, expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) updateItemQuantity(c *gin.Context) {
	cartKey := c.Param("cartKey")
	productID := c.Param("productId")
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}
	expected, ok := h.expectedVersion(c, cartKey, req.ExpectedVersion)
	if !ok {
		return
	}
	cart, err := h.svc.UpdateItemQuantity(c.Request.Context(), cartKey, productID, *req.Quantity, req.Attributes, expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) removeItem(c *gin.Context) {
	cartKey := c.Param("cartKey")
	productID := c.Param("productId")
	expected, ok := h.expectedVersion(c, cartKey, 0)
	if !ok {
		return
	}
	cart, err := h.svc.RemoveItem(c.Request.Context(), cartKey, productID, c.Query("attributes"), expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) applyCoupon(c *gin.Context) {
	cartKey := c.Param("cartKey")
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	expected, ok := h.expectedVersion(c, cartKey, req.ExpectedVersion)
	if !ok {
		return
	}
	cart, err := h.svc.ApplyCoupon(c.Request.Context(), cartKey, req.Code, expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) removeCoupon(c *gin.Context) {
	cartKey := c.Param("cartKey")
	expected, ok := h.expectedVersion(c, cartKey, 0)
	if !ok {
		return
	}
	cart, err := h.svc.RemoveCoupon(c.Request.Context(), cartKey, expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *cartHandlers) clearCart(c *gin.Context) {
	cartKey := c.Param("cartKey")
	var req versionedRequest
	_ = c.ShouldBindJSON(&req)
	expected, ok := h.expectedVersion(c, cartKey, req.ExpectedVersion)
	if !ok {
		return
	}
	cart, err := h.svc.Clear(c.Request.Context(), cartKey, expected)
	if err != nil {
		h.writeError(c, cartKey, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

// expectedVersion resolves the optional write precondition: an If-Match
// concurrency token wins over an expectedVersion field in the body. Zero
// means no precondition.
func (h *cartHandlers) expectedVersion(c *gin.Context, cartKey string, bodyVersion int64) (int64, bool) {
	header := strings.TrimSpace(c.GetHeader("If-Match"))
	if header == "" {
		if bodyVersion < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expectedVersion must not be negative"})
			return 0, false
		}
		return bodyVersion, true
	}
	token := strings.Trim(header, `"`)
	version, err := h.tokens.Verify(cartKey, token)
	if err != nil {
		h.writeError(c, cartKey, err)
		return 0, false
	}
	return version, true
}

func (h *cartHandlers) writeCart(c *gin.Context, status int, cart domain.Cart) {
	token := h.tokens.Issue(cart.CartKey, cart.Version)
	c.Header("ETag", `"`+token+`"`)
	c.JSON(status, toCartView(cart, token))
}

func (h *cartHandlers) writeError(c *gin.Context, cartKey string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
	case errors.Is(err, domain.ErrInvalidCoupon):
		c.JSON(http.StatusBadRequest, gin.H{"error": "coupon not applicable"})
	case errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		h.writeConflict(c, cartKey)
	case errors.Is(err, domain.ErrDependencyUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pricing dependency unavailable, retry"})
	default:
		h.logger.Printf("cart handler: cart_key=%s error=%v", cartKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// writeConflict returns 409 with the current cart state so the caller can
// re-read and retry without a second round trip.
func (h *cartHandlers) writeConflict(c *gin.Context, cartKey string) {
	current, err := h.svc.Get(c.Request.Context(), cartKey)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "version conflict"})
		return
	}
	token := h.tokens.Issue(current.CartKey, current.Version)
	c.Header("ETag", `"`+token+`"`)
	c.JSON(http.StatusConflict, gin.H{
		"error":   "version conflict",
		"current": toCartView(current, token),
	})
}
