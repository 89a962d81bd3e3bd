package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedme-app/feedme/internal/backup"
	"github.com/feedme-app/feedme/internal/database"
	"github.com/feedme-app/feedme/internal/logging"
	"github.com/feedme-app/feedme/internal/recipe"
	"github.com/feedme-app/feedme/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("FEEDME_LOG_LEVEL"))

	port := os.Getenv("FEEDME_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FEEDME_DB_PATH")
	if dbPath == "" {
		dbPath = "feedme.db"
	}

	secret := os.Getenv("FEEDME_JWT_SECRET")
	if secret == "" {
		logger.Error("FEEDME_JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: secret,
		Recipe: recipe.Config{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  os.Getenv("GEMINI_MODEL"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("FEEDME_S3_ENDPOINT"),
				Bucket:    os.Getenv("FEEDME_S3_BUCKET"),
				Region:    os.Getenv("FEEDME_S3_REGION"),
				AccessKey: os.Getenv("FEEDME_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("FEEDME_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("FEEDME_BACKUP_PASSPHRASE"),
		},
	}

	srv := server.New(db, cfg, logger)

	if mgr := srv.BackupManager(); mgr.Enabled() {
		mgr.Start(context.Background())
		defer mgr.Stop()
	} else {
		logger.Info("backups disabled, set FEEDME_S3_* and FEEDME_BACKUP_PASSPHRASE to enable")
	}

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Feed Me running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
