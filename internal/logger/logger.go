// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger holds logging options. Embed it in a go-flags Options struct.
//
// Records go to the log file, or nowhere without one. The terminal also gets
// them until the UI takes the screen over (see Sink.Detach).
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	File   string `long:"log-file"   env:"LOG_FILE"   description:"Write logs to this file"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format" choice:"text" choice:"json" default:"text"`
}

// Sink is the destination set up by Logger.Setup.
type Sink struct {
	file io.Closer
	out  io.Writer // log file, or io.Discard
	term io.Writer
}

// Setup applies the options to the global logger, with term attached.
// On a log file error the sink still works, writing to term only.
func (l Logger) Setup(term io.Writer) (*Sink, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	s := &Sink{out: io.Discard, term: term}
	defer s.Attach()

	if l.File == "" {
		return s, nil
	}
	f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return s, fmt.Errorf("open log file: %w", err)
	}
	s.file = f
	s.out = f
	if l.Format != "json" {
		s.out = zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.DateTime}
	}
	return s, nil
}

// Attach sends records to the terminal as well as the log file.
func (s *Sink) Attach() {
	w := zerolog.MultiLevelWriter(s.out, zerolog.ConsoleWriter{Out: s.term, TimeFormat: time.Kitchen})
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// Detach stops writing to the terminal.
func (s *Sink) Detach() {
	log.Logger = zerolog.New(s.out).With().Timestamp().Logger()
}

// Close releases the log file, if one was opened.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
