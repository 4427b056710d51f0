package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/cart"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/catalog"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/checkout"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/config"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/events"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/httpapi"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/inventory"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/payment"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	if cfg.DatabaseDSN == "" {
		logger.Fatal("DATABASE_DSN not set")
	}

	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	sqlDB, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("create publisher: %v", err)
	}
	defer publisher.Close()

	// Repositories
	cartRepo := cart.NewRepository(sqlDB)
	catalogRepo := catalog.NewPostgresRepository(pool)
	inventoryRepo := inventory.NewPostgresRepository(pool)
	orderRepo := order.NewRepository(pool)
	paymentRepo := payment.NewRepository(pool)

	// Services
	orderSvc := order.NewService(pool, orderRepo, inventoryRepo, publisher, logger)
	checkoutSvc := checkout.NewService(pool, cartRepo, catalogRepo, inventoryRepo, orderRepo, publisher, logger)
	gateway := payment.NewGateway(cfg.Gateway)
	paymentSvc := payment.NewService(paymentRepo, orderRepo, gateway, publisher, logger)

	router := httpapi.NewRouter(httpapi.Handlers{
		Checkout:  httpapi.NewCheckoutHandler(checkoutSvc),
		Orders:    httpapi.NewOrderHandler(orderSvc),
		Payments:  httpapi.NewPaymentHandler(paymentSvc),
		Cart:      httpapi.NewCartHandler(cartRepo, catalogRepo),
		Inventory: httpapi.NewInventoryHandler(inventoryRepo),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}
