// cmd/seeder/main.go
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/unclebandit/cardscan-backend/internal/config"
	"github.com/unclebandit/cardscan-backend/internal/db"
	"github.com/unclebandit/cardscan-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.load_error", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Error("db.open_error", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Error("db.migrate_error", "error", err)
		os.Exit(1)
	}

	dir := "seed"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	seedFiles, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		log.Error("seed.glob_error", "error", err)
		os.Exit(1)
	}
	sort.Strings(seedFiles)

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Error("seed.read_error", "file", file, "error", err)
			os.Exit(1)
		}

		if _, err := conn.Exec(string(content)); err != nil {
			log.Error("seed.exec_error", "file", file, "error", err)
			os.Exit(1)
		}
		log.Info("seed.applied", "file", file)
	}

	log.Info("seed.done", "files", len(seedFiles))
}
