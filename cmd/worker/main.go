package main

import (
	"flag"
	"log"

	"github.com/justingeeslin/opensensecam/internal/app"
	"github.com/justingeeslin/opensensecam/internal/config"
)

func main() {
	configPath := flag.String("config", "/var/lib/opensensecam/worker.conf", "path to the worker config file")
	flag.Parse()

	log.Println("starting opensensecam worker (GPS + camera)")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := app.RunWorker(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
