package tui

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// loadPath puts a file's contents into the input area.
func (m *Model) loadPath(p string) {
	data, err := os.ReadFile(p)
	if err != nil {
		log.Error().Err(err).Str("path", p).Msg("Failed to read input file")
		m.status = "load error: " + err.Error()
		return
	}
	m.ta.SetValue(string(data))
	m.status = "loaded: " + filepath.Base(p)
	log.Info().Str("path", p).Int("bytes", len(data)).Msg("Input file loaded")
}
