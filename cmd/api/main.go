package main

import (
	"log"
	"net/http"

	"lcflow/internal/api"
	"lcflow/internal/config"
	"lcflow/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	if err := storage.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal(err)
	}
	h := api.NewServer(cfg)
	log.Printf("lcflow api listening on %s provider=%s model=%s", cfg.APIAddr, cfg.Provider, cfg.Model)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
