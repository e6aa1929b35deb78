package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cartservice/internal/domain"
	cartsvc "cartservice/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type stubCartService struct {
	cart         domain.Cart
	err          error
	current      domain.Cart
	currentErr   error
	lastKey      string
	lastProduct  string
	lastAttrs    string
	lastCode     string
	lastQty      int
	lastExpected int64
}

func (s *stubCartService) Get(_ context.Context, cartKey string) (domain.Cart, error) {
	s.lastKey = cartKey
	if s.currentErr != nil {
		return domain.Cart{}, s.currentErr
	}
	return s.current, nil
}

func (s *stubCartService) GetOrCreate(_ context.Context, cartKey string, _ *string) (domain.Cart, error) {
	s.lastKey = cartKey
	if s.err != nil {
		return domain.Cart{}, s.err
	}
	cart := s.cart
	if cart.CartKey == "" {
		cart.CartKey = cartKey
	}
	return cart, nil
}

func (s *stubCartService) AddItem(_ context.Context, cartKey, productID string, quantity int, attributes string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastProduct, s.lastQty, s.lastAttrs, s.lastExpected = cartKey, productID, quantity, attributes, expectedVersion
	return s.cart, s.err
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, cartKey, productID string, newQuantity int, attributes string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastProduct, s.lastQty, s.lastAttrs, s.lastExpected = cartKey, productID, newQuantity, attributes, expectedVersion
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, cartKey, productID, attributes string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastProduct, s.lastAttrs, s.lastExpected = cartKey, productID, attributes, expectedVersion
	return s.cart, s.err
}

func (s *stubCartService) ApplyCoupon(_ context.Context, cartKey, code string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastCode, s.lastExpected = cartKey, code, expectedVersion
	return s.cart, s.err
}

func (s *stubCartService) RemoveCoupon(_ context.Context, cartKey string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastExpected = cartKey, expectedVersion
	return s.cart, s.err
}

func (s *stubCartService) Clear(_ context.Context, cartKey string, expectedVersion int64) (domain.Cart, error) {
	s.lastKey, s.lastExpected = cartKey, expectedVersion
	return s.cart, s.err
}

type stubCatalogRepo struct {
	products []domain.Product
	product  *domain.Product
	err      error
}

func (s *stubCatalogRepo) List(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogRepo) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func testRouter(svc cartService, catalog productCatalog, tokens *cartsvc.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if tokens == nil {
		tokens = cartsvc.NewTokenIssuer("test-secret")
	}
	logger := log.New(io.Discard, "", 0)
	return buildRouter(logger, nil, Deps{CartSvc: svc, Products: catalog, Tokens: tokens})
}

func sampleCart(version int64) domain.Cart {
	return domain.Cart{
		CartKey:       "c1",
		Currency:      "USD",
		SubtotalCents: 2000,
		TotalCents:    2000,
		Version:       version,
		Lines: []domain.CartLine{{
			ID:             "line-1",
			ProductID:      "p1",
			ProductName:    "Widget",
			ProductSKU:     "SKU-1",
			UnitPriceCents: 1000,
			Quantity:       2,
			TotalCents:     2000,
		}},
	}
}

func TestAddItemHandler(t *testing.T) {
	svc := &stubCartService{cart: sampleCart(2)}
	tokens := cartsvc.NewTokenIssuer("test-secret")
	router := testRouter(svc, &stubCatalogRepo{}, tokens)

	body := `{"productId":"p1","quantity":2,"attributes":"size=M","expectedVersion":1}`
	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.lastKey != "c1" || svc.lastProduct != "p1" || svc.lastQty != 2 || svc.lastAttrs != "size=M" || svc.lastExpected != 1 {
		t.Fatalf("service called with unexpected args: %+v", svc)
	}

	wantToken := tokens.Issue("c1", 2)
	if etag := rec.Header().Get("ETag"); etag != `"`+wantToken+`"` {
		t.Fatalf("unexpected ETag %q", etag)
	}
	var resp struct {
		Version          int64  `json:"version"`
		ConcurrencyToken string `json:"concurrencyToken"`
		TotalCents       int64  `json:"totalCents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Version != 2 || resp.ConcurrencyToken != wantToken || resp.TotalCents != 2000 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAddItemHandlerMissingProduct(t *testing.T) {
	router := testRouter(&stubCartService{}, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(`{"quantity":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddItemHandlerInvalidQuantity(t *testing.T) {
	svc := &stubCartService{err: domain.ErrInvalidQuantity}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(`{"productId":"p1","quantity":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIfMatchResolvesExpectedVersion(t *testing.T) {
	svc := &stubCartService{cart: sampleCart(8)}
	tokens := cartsvc.NewTokenIssuer("test-secret")
	router := testRouter(svc, &stubCatalogRepo{}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(`{"productId":"p1","quantity":1}`))
	req.Header.Set("If-Match", `"`+tokens.Issue("c1", 7)+`"`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastExpected != 7 {
		t.Fatalf("expected If-Match version 7, got %d", svc.lastExpected)
	}
}

func TestIfMatchRejectsForeignToken(t *testing.T) {
	svc := &stubCartService{cart: sampleCart(3), current: sampleCart(3)}
	tokens := cartsvc.NewTokenIssuer("test-secret")
	router := testRouter(svc, &stubCatalogRepo{}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(`{"productId":"p1","quantity":1}`))
	req.Header.Set("If-Match", `"`+tokens.Issue("other-cart", 3)+`"`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if svc.lastProduct != "" {
		t.Fatalf("service must not be called on bad token")
	}
}

func TestConflictReturnsCurrentCart(t *testing.T) {
	svc := &stubCartService{err: domain.ErrConcurrencyConflict, current: sampleCart(5)}
	router := testRouter(svc, &stubCatalogRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/carts/c1/items", strings.NewReader(`{"productId":"p1","quantity":1,"expectedVersion":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp struct {
		Error   string `json:"error"`
		Current struct {
			Version int64 `json:"version"`
		} `json:"current"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Current.Version != 5 {
		t.Fatalf("expected current cart version 5 in conflict body, got %+v", resp)
	}
}

func TestGetCartNotFound(t *testing.T) {
	svc := &stubCartService{currentErr: domain.ErrNotFound}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/carts/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRemoveItemNotInCart(t *testing.T) {
	svc := &stubCartService{err: domain.ErrItemNotFound}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/carts/c1/items/p9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDependencyUnavailableMapsTo503(t *testing.T) {
	svc := &stubCartService{err: domain.ErrDependencyUnavailable}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/carts/c1/clear", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestApplyCouponHandler(t *testing.T) {
	cart := sampleCart(3)
	code := "SAVE5"
	cart.CouponCode = &code
	cart.DiscountCents = 500
	svc := &stubCartService{cart: cart}
	router := testRouter(svc, &stubCatalogRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/carts/c1/coupon", strings.NewReader(`{"code":"SAVE5"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastCode != "SAVE5" {
		t.Fatalf("expected code forwarded, got %q", svc.lastCode)
	}
}

func TestApplyCouponRejected(t *testing.T) {
	svc := &stubCartService{err: domain.ErrInvalidCoupon}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/carts/c1/coupon", strings.NewReader(`{"code":"NOPE"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateCartIssuesKey(t *testing.T) {
	svc := &stubCartService{}
	router := testRouter(svc, &stubCatalogRepo{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/carts", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.lastKey == "" {
		t.Fatalf("expected generated cart key")
	}
	var resp struct {
		CartKey string `json:"cartKey"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CartKey != svc.lastKey {
		t.Fatalf("response key %q does not match issued key %q", resp.CartKey, svc.lastKey)
	}
}

func TestProductEndpoints(t *testing.T) {
	catalog := &stubCatalogRepo{
		products: []domain.Product{{ID: "p1", SKU: "SKU-1", Name: "Widget", PriceCents: 1000, Currency: "USD"}},
		product:  &domain.Product{ID: "p1", SKU: "SKU-1", Name: "Widget", PriceCents: 1000, Currency: "USD"},
	}
	router := testRouter(&stubCartService{}, catalog, nil)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/products/p1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	catalog.err = domain.ErrNotFound
	req = httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", rec.Code)
	}
}
