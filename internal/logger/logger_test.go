package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyviz.log")
	sink, err := Logger{Level: "debug", File: path, Format: "json"}.Setup(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.Debug().Int("zoom", 17).Msg("tiles fetched")
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"zoom":17`) || !strings.Contains(out, `"message":"tiles fetched"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestSetupLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyviz.log")
	sink, err := Logger{Level: "warn", File: path, Format: "text"}.Setup(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	_ = sink.Close()

	data, _ := os.ReadFile(path)
	out := string(data)
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestTerminalUntilDetached(t *testing.T) {
	var term bytes.Buffer
	sink, err := Logger{Level: "info"}.Setup(&term)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.Error().Msg("config is broken")
	if !strings.Contains(term.String(), "config is broken") {
		t.Fatalf("expected startup error on the terminal, got %q", term.String())
	}

	sink.Detach()
	log.Error().Msg("while the ui runs")
	if strings.Contains(term.String(), "while the ui runs") {
		t.Fatal("detached sink still writes to the terminal")
	}

	sink.Attach()
	log.Error().Msg("after the ui")
	if !strings.Contains(term.String(), "after the ui") {
		t.Fatal("re-attached sink does not write to the terminal")
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSetupBadPathStillReports(t *testing.T) {
	var term bytes.Buffer
	sink, err := Logger{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}.Setup(&term)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	log.Error().Err(err).Msg("Failed to set up logging")
	if !strings.Contains(term.String(), "Failed to set up logging") {
		t.Fatalf("expected the failure on the terminal, got %q", term.String())
	}
	_ = sink.Close()
}
