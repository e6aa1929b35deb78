package httpserver

import (
	"context"
	"log"

	"cartservice/internal/domain"
	cartsvc "cartservice/internal/service/cart"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cartService interface {
	Get(ctx context.Context, cartKey string) (domain.Cart, error)
	GetOrCreate(ctx context.Context, cartKey string, ownerID *string) (domain.Cart, error)
	AddItem(ctx context.Context, cartKey, productID string, quantity int, attributes string, expectedVersion int64) (domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartKey, productID string, newQuantity int, attributes string, expectedVersion int64) (domain.Cart, error)
	RemoveItem(ctx context.Context, cartKey, productID, attributes string, expectedVersion int64) (domain.Cart, error)
	ApplyCoupon(ctx context.Context, cartKey, code string, expectedVersion int64) (domain.Cart, error)
	RemoveCoupon(ctx context.Context, cartKey string, expectedVersion int64) (domain.Cart, error)
	Clear(ctx context.Context, cartKey string, expectedVersion int64) (domain.Cart, error)
}

type productCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// Deps carries the wired services for the router.
type Deps struct {
	CartSvc  cartService
	Products productCatalog
	Tokens   *cartsvc.TokenIssuer
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "If-Match")
	corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, "ETag")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	ch := &cartHandlers{svc: deps.CartSvc, tokens: deps.Tokens, logger: logger}
	carts := router.Group("/carts")
	{
		carts.POST("", ch.createCart)
		carts.POST("/:cartKey", ch.getOrCreate)
		carts.GET("/:cartKey", ch.getCart)
		carts.POST("/:cartKey/items", ch.addItem)
		carts.PATCH("/:cartKey/items/:productId", ch.updateItemQuantity)
		carts.DELETE("/:cartKey/items/:productId", ch.removeItem)
		carts.POST("/:cartKey/coupon", ch.applyCoupon)
		carts.DELETE("/:cartKey/coupon", ch.removeCoupon)
		carts.POST("/:cartKey/clear", ch.clearCart)
	}

	ph := &productHandlers{catalog: deps.Products}
	router.GET("/products", ph.list)
	router.GET("/products/:id", ph.get)

	return router
}
