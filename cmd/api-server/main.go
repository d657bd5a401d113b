package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"animehub/internal/anime"
	"animehub/internal/auth"
	"animehub/internal/kitsu"
	"animehub/internal/ledger"
	"animehub/internal/subscription"
	"animehub/pkg/database"
	"animehub/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db, cfg.SchemaPath); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Anime metadata (public reads)
	animeRepo := anime.NewRepo(db)
	animeHandler := anime.NewHandler(animeRepo)
	animeHandler.RegisterRoutes(router.Group("/anime"))

	// Subscriptions (protected); free-text queries resolve through kitsu.
	linker := anime.NewLinker(animeRepo, kitsu.New(os.Getenv("ANIMEHUB_KITSU_API")))
	subRepo := subscription.NewRepo(db)
	subHandler := subscription.NewHandler(subRepo, linker)

	protected := router.Group("/subscriptions")
	protected.Use(auth.AuthMiddleware(tokenSvc))
	subHandler.RegisterRoutes(protected)

	// Balances (protected)
	ledgerHandler := ledger.NewHandler(ledger.NewRepo(db))
	balances := router.Group("/balances")
	balances.Use(auth.AuthMiddleware(tokenSvc))
	ledgerHandler.RegisterRoutes(balances)

	router.GET("/users/me", auth.AuthMiddleware(tokenSvc), func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
		})
	})

	addr := os.Getenv("ANIMEHUB_API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
