package main

import (
	"log"

	"github.com/fitness360/notification-svc/cmd/notifier"
	"github.com/fitness360/notification-svc/internal/adapters/config"
	"github.com/fitness360/notification-svc/internal/adapters/controller/setup"

	_ "time/tzdata"
)

func main() {
	cfg := config.Get()
	n, err := notifier.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	if err = setup.Setup(n); err != nil {
		n.Logger.Panicf("Failed to set up: %v", err)
	}

	if err = n.Start(); err != nil {
		n.Logger.Fatalf("Notifier stopped: %v", err)
	}
}
