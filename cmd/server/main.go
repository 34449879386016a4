package main

import (
	"log"
	"net/http"
	"os"

	"show-of-hands/internal/config"
	"show-of-hands/internal/db"
	"show-of-hands/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		opened, err := db.Open()
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := db.ConfigurePool(opened, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
			cfg.DBConnMaxLifetimeSeconds, cfg.DBConnMaxIdleTimeSeconds); err != nil {
			log.Fatalf("failed to configure database pool: %v", err)
		}
		if err := db.Migrate(opened); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		conn = opened
	} else {
		log.Println("DATABASE_URL not set; running without persistence")
	}

	srv := server.New(conn, cfg)
	if err := srv.RestoreActiveSessions(); err != nil {
		log.Fatalf("failed to restore sessions: %v", err)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("show-of-hands server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
