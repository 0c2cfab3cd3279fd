package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/record"
	"github.com/tomz197/seaspot/internal/sim"
	"github.com/tomz197/seaspot/internal/web"
)

const (
	defaultHost    = "0.0.0.0"
	defaultPort    = "8080"
	defaultSSHPort = "2222"
)

func main() {
	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "")
	sshPort := config.GetEnv("SSH_PORT", defaultSSHPort)
	dbPath := config.GetEnv("SEASPOT_DB", "")

	conf, err := config.FromEnv()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	opts := []sim.Option{sim.WithLogger(log.Default())}
	if dbPath != "" {
		store, err := record.Open(context.Background(), dbPath, conf.Sea.Seed)
		if err != nil {
			log.Fatal("failed to open recorder", "err", err)
		}
		defer store.Close()
		opts = append(opts, sim.WithRecorder(store))
	}

	server, err := sim.NewServer(conf, opts...)
	if err != nil {
		log.Fatal("failed to create sea", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)

	hubOpts := []web.Option{web.WithLogger(log.Default())}
	if sshHost != "" {
		hubOpts = append(hubOpts, web.WithSSHCommand(fmt.Sprintf("ssh -p %s %s", sshPort, sshHost)))
	}
	hub := web.NewHub(server, hubOpts...)
	go hub.Run(ctx)

	addr := net.JoinHostPort(host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           hub.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting web server", "url", "http://"+addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "err", err)
		}
	}()

	<-done
	log.Info("Shutting down server...")

	server.Shutdown(5 * time.Second)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}
