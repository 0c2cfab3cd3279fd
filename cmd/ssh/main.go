package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/draw"
	"github.com/tomz197/seaspot/internal/record"
	"github.com/tomz197/seaspot/internal/sim"
	"github.com/tomz197/seaspot/internal/viewer"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

// Global sea server - shared by all SSH sessions
var (
	seaServer    *sim.Server
	cancelServer context.CancelFunc
	serverOnce   sync.Once
)

func main() {
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	dbPath := config.GetEnv("SEASPOT_DB", "")
	log.Info("SSH config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "db", dbPath)

	conf, err := config.FromEnv()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	var store *record.Store
	if dbPath != "" {
		store, err = record.Open(context.Background(), dbPath, conf.Sea.Seed)
		if err != nil {
			log.Fatal("failed to open recorder", "err", err)
		}
		defer store.Close()
	}

	// Initialize and start the shared sea server
	serverOnce.Do(func() {
		opts := []sim.Option{sim.WithLogger(log.Default())}
		if store != nil {
			opts = append(opts, sim.WithRecorder(store))
		}
		seaServer, err = sim.NewServer(conf, opts...)
		if err != nil {
			log.Fatal("failed to create sea", "err", err)
		}

		var ctx context.Context
		ctx, cancelServer = context.WithCancel(context.Background())
		go seaServer.Run(ctx)
		log.Info("Sea server started", "seed", conf.Sea.Seed)
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			seaMiddleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		log.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting SSH server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatal("server error", "err", err)
		}
	}()

	<-done
	log.Info("Shutting down server...")

	// Gracefully shut down the sea server: notify viewers and wait for them to disconnect
	if seaServer != nil {
		log.Info("Notifying connected viewers about shutdown...")
		seaServer.Shutdown(15 * time.Second)
		cancelServer()
		log.Info("Sea server stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}

// seaMiddleware handles SSH sessions and runs the sea viewer.
func seaMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		log.Info("New viewer session", "user", sess.User(), "term", pty.Term,
			"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		reader := bufio.NewReader(sess)
		v := viewer.New(seaServer, reader, sess, viewer.Options{
			TermSizeFunc: sizeTracker.getSize,
			Name:         sess.User(),
		})
		if err := v.Run(); err != nil {
			log.Error("viewer error", "user", sess.User(), "err", err)
		}

		log.Info("Session ended", "user", sess.User())
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
