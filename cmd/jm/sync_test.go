package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jiramirror/jiramirror/internal/config"
	"github.com/jiramirror/jiramirror/internal/jira"
	"github.com/jiramirror/jiramirror/internal/sync"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", fmt.Errorf("%w: connection refused", jira.ErrTransport), true},
		{"partial sync over transport", &sync.PartialSyncError{Reconciled: 2, Err: fmt.Errorf("%w: timeout", jira.ErrTransport)}, true},
		{"partial sync over bad data", &sync.PartialSyncError{Reconciled: 1, Err: errors.New("invalid remote ID")}, false},
		{"plain error", errors.New("jira URL not configured"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetriesFromConfig(t *testing.T) {
	chdir(t, t.TempDir())
	cfgDir := ".jiramirror"
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("sync:\n  retries: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := config.Initialize(); err != nil {
		t.Fatal(err)
	}

	if got := retriesFromConfig(3); got != 7 {
		t.Errorf("retriesFromConfig = %d, want 7 from config file", got)
	}
}

func TestRetryNotifyHonorsVerbose(t *testing.T) {
	old := verbose
	t.Cleanup(func() { verbose = old })

	var buf bytes.Buffer
	notify := retryNotify(&buf, "ABC")

	verbose = false
	notify(errors.New("boom"), time.Second)
	if buf.Len() != 0 {
		t.Errorf("expected no output without --verbose, got %q", buf.String())
	}

	verbose = true
	notify(errors.New("boom"), time.Second)
	if got := buf.String(); got != "Retrying ABC in 1s: boom\n" {
		t.Errorf("unexpected notify output: %q", got)
	}
}
