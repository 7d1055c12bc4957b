package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/Oozturn/oozturn-sub001/internal/config"
	"github.com/Oozturn/oozturn-sub001/internal/db"
	"github.com/Oozturn/oozturn-sub001/internal/service"
	"github.com/Oozturn/oozturn-sub001/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	database := db.InitDB(cfg.DatabasePath)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	svc := service.NewTournamentService(database, store.NewTournamentStore(database))
	if _, err := svc.LoadAll(context.Background()); err != nil {
		log.Fatal("Failed to restore tournaments:", err)
	}

	router := newRouter(svc)

	slog.Info("Server starting", "addr", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatal(err)
	}
}
