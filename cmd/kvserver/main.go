// Command kvserver runs the RESP-protocol key/value server: binds IPv4
// loopback by default, listens on --port (default 6379), and shuts down
// cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coregx/kvstore/internal/config"
	"github.com/coregx/kvstore/server"
	"github.com/coregx/kvstore/store"
)

const (
	defaultHostname = "127.0.0.1"
	defaultPort     = 6379
)

func main() {
	os.Exit(run())
}

func run() int {
	port := flag.Int("port", defaultPort, "TCP port to listen on")
	host := flag.String("hostname", defaultHostname, "interface to bind")
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			return 1
		}
		cfg = loaded
	}
	cfg.ApplyDefaults(defaultHostname, defaultPort)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "hostname":
			cfg.Hostname = *host
		}
	})

	addr := fmt.Sprintf("%s:%d", cfg.Hostname, cfg.Port)
	db := store.New()
	defer db.Close()

	ln, err := server.Listen(addr, db, log)
	if err != nil {
		log.Error("failed to bind listener", "addr", addr, "error", err)
		return 1
	}
	log.Info("listening", "addr", ln.Addr().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ln.Run(ctx); err != nil {
		log.Error("accept loop exited with a fatal error", "error", err)
		return 1
	}
	log.Info("shutdown complete")
	return 0
}
