package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cartservice/internal/config"
	"cartservice/internal/db"
	"cartservice/internal/httpserver"
	cartrepo "cartservice/internal/repository/cart"
	couponrepo "cartservice/internal/repository/coupon"
	productrepo "cartservice/internal/repository/product"
	cartsvc "cartservice/internal/service/cart"
	couponsvc "cartservice/internal/service/coupon"
	"cartservice/internal/service/pricing"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	couponRepo := couponrepo.NewPostgres(dbpool, logger)

	cartService := cartsvc.New(
		cartRepo,
		productRepo,
		couponsvc.New(couponRepo),
		pricing.PercentTax{RateBps: cfg.TaxRateBps},
		pricing.TieredShipping{FlatCents: cfg.ShippingFlatCents, FreeOverCents: cfg.FreeShippingCents},
		logger,
		cartsvc.Options{
			CollaboratorWait: cfg.CollaboratorWait,
			Currency:         cfg.DefaultCurrency,
		},
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:  cartService,
		Products: productRepo,
		Tokens:   cartsvc.NewTokenIssuer(cfg.TokenSecret),
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
