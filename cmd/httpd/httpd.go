// Package httpd implements the httpd command: a thin read-only HTTP
// surface over the coordinator's health and operation accessors.
package httpd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pricewatch/cmd/common"
	"github.com/jonesrussell/pricewatch/internal/coordinator"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

const (
	defaultAddr         = ":8080"
	defaultStatsLimit   = 50
	maxStatsLimit       = 500
	shutdownGracePeriod = 10 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "Serve the read-only health and operations API",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			return serve(cmd.Context(), addr, deps.Coordinator, deps.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")

	return cmd
}

// serve runs the HTTP server until interrupted.
func serve(ctx context.Context, addr string, coord *coordinator.Coordinator, log logger.Interface) error {
	if !viper.GetBool("app.debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, coord)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// registerRoutes wires the read-only endpoints.
func registerRoutes(router *gin.Engine, coord *coordinator.Coordinator) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health", func(c *gin.Context) {
		health, err := coord.SystemHealth(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, health)
	})

	router.GET("/operations", func(c *gin.Context) {
		limit := defaultStatsLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, parseErr := strconv.Atoi(raw)
			if parseErr != nil || parsed <= 0 || parsed > maxStatsLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = parsed
		}

		operations, err := coord.OperationStats(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"operations": operations})
	})

	router.GET("/agents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"agents": coord.RegisteredAgents()})
	})
}
