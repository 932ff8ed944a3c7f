// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satireworks/greenroom/internal/api"
	"github.com/satireworks/greenroom/internal/app"
	"github.com/satireworks/greenroom/internal/config"
	"github.com/satireworks/greenroom/internal/di"
)

func main() {
	log.Println("starting greenroom server...")

	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	createDirectories(baseConfig)

	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("initializing configuration: %v", err)
	}

	if err := app.InitServices(); err != nil {
		log.Fatalf("initializing services: %v", err)
	}

	if err := performHealthCheck(); err != nil {
		log.Printf("service health check warning: %v", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("setting up routes: %v", err)
	}

	log.Printf("listening on port %s", baseConfig.Port)
	runWithGracefulShutdown(router, baseConfig.Port)
}

// performHealthCheck verifies the critical services are registered before
// the server accepts traffic.
func performHealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{"store", "llm", "project", "chat", "config"}
	for _, serviceName := range criticalServices {
		if service := container.Get(serviceName); service == nil {
			return fmt.Errorf("critical service not registered: %s", serviceName)
		}
	}

	return nil
}

func runWithGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}

// createDirectories makes the directories the application writes to.
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "exports"),
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("creating directory %s: %v", dir, err)
		}
	}
}
