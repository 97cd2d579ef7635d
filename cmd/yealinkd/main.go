// cmd/yealinkd/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/treitmayr/yealink-module/internal/config"
	"github.com/treitmayr/yealink-module/internal/engine"
	"github.com/treitmayr/yealink-module/internal/server"
	"github.com/treitmayr/yealink-module/internal/usb"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: yealinkd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	level, err := log.ParseLevel(cfg.Daemon.Log.Level)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	log.SetLevel(level)

	ringtone, err := config.DecodeRingtone(cfg.Daemon.Device.Ringtone)
	if err != nil {
		log.Fatalf("ringtone decode failed: %v", err)
	}

	// --------------------
	// Claim the handset
	// --------------------

	phone, err := usb.Open(log.WithField("component", "usb"))
	if err != nil {
		log.Fatalf("usb open failed: %v", err)
	}

	eng, err := engine.New(engine.Config{
		PollInterval:    time.Duration(cfg.Daemon.Device.PollIntervalMs) * time.Millisecond,
		ExchangeTimeout: time.Duration(cfg.Daemon.Device.ExchangeTimeoutMs) * time.Millisecond,
		ForceModel:      cfg.Daemon.Device.ForceModel,
		Ringtone:        ringtone,
	}, phone, log.WithField("component", "engine"))
	if err != nil {
		phone.Close()
		log.Fatalf("engine build failed: %v", err)
	}

	if err := eng.Start(); err != nil {
		phone.Close()
		log.Fatalf("negotiation failed: %v", err)
	}
	log.Infof("attached %s", eng)

	// --------------------
	// Control surface
	// --------------------

	srv := server.New(cfg.Daemon.API.Listen, eng, log.WithField("component", "api"))
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("api server failed: %v", err)
		}
	}()

	// --------------------
	// Run until signalled
	// --------------------

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("shutting down")

	if err := srv.Stop(); err != nil {
		log.Warnf("api server stop: %v", err)
	}
	eng.Stop()
}
