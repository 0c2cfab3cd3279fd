package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/sim"
	"github.com/tomz197/seaspot/internal/viewer"
)

func main() {
	// The terminal belongs to the viewer; logs go to SEASPOT_LOG if set
	logger := log.New(io.Discard)
	if path := config.GetEnv("SEASPOT_LOG", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = log.NewWithOptions(f, log.Options{ReportTimestamp: true, Level: log.DebugLevel})
	}

	conf, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	server, err := sim.NewServer(conf, sim.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sea: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	v := viewer.New(server, reader, os.Stdout, viewer.Options{Name: "local"})
	if err := v.Run(); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "viewer error: %v\n", err)
		os.Exit(1)
	}
}
