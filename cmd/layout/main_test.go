package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/record"
)

func TestRunPrintsSummaryAndRecords(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "layout.db")

	var out bytes.Buffer
	err := run(ctx, options{islands: 2, queries: 5, seed: 3, dbPath: dbPath}, &out, log.New(io.Discard))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"islands", "path queries", "5", "mean search"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in summary, got %q", want, out.String())
		}
	}

	// The store was closed on return, so the file opens cleanly again.
	s, err := record.Open(ctx, dbPath, 3)
	if err != nil {
		t.Fatalf("expected the database to reopen, got %v", err)
	}
	s.Close()
}

func TestRunReturnsErrors(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)

	err := run(ctx, options{islands: 2, configPath: filepath.Join(t.TempDir(), "missing.toml")}, io.Discard, logger)
	if err == nil {
		t.Error("expected an error for a missing config file")
	}

	err = run(ctx, options{islands: -1}, io.Discard, logger)
	if err == nil {
		t.Error("expected an error for a negative island count")
	}
}
