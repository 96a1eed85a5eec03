package main

import (
	"crypto/tls"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"polyviz/internal/config"
	"polyviz/internal/logger"
	"polyviz/internal/render"
	"polyviz/internal/tiles"
	"polyviz/internal/tui"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"    env:"POLYVIZ_CONFIG" description:"Path to configuration file"`
	Offline    bool   `short:"o" long:"offline"   description:"Draw without a basemap"`
	TileURL    string `short:"u" long:"tile-url"  description:"Tile URL template with {z}, {x} and {y}"`
	CacheDir   string `long:"cache-dir"           description:"Keep downloaded tiles in this directory"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"Preload coordinates from this file"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [FILE]"
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	sink, err := opts.Logger.Setup(os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer sink.Close()

	m, err := build(opts)
	if err != nil {
		sink.Close()
		os.Exit(1)
	}

	// the screen belongs to the UI from here on
	sink.Detach()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	sink.Attach()
	if err != nil {
		log.Fatal().Err(err).Msg("UI failed")
	}
}

// build wires config, tile source and renderer into the UI model. Failures
// are logged before they are returned.
func build(opts Options) (tea.Model, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, err
	}

	style, err := render.ParseStyle(cfg.Style.Fill, cfg.Style.Edge, cfg.Style.Alpha)
	if err != nil {
		log.Error().Err(err).Msg("Invalid style")
		return nil, err
	}

	var src tiles.Source
	if cfg.BasemapEnabled() {
		client := &http.Client{
			Transport: &http.Transport{
				TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:        cfg.Basemap.Concurrency,
				MaxIdleConnsPerHost: cfg.Basemap.Concurrency,
			},
			Timeout: cfg.Basemap.Timeout,
		}
		src = tiles.NewCache(
			tiles.NewHTTPSource(client, cfg.Basemap.URL, cfg.Basemap.UserAgent),
			cfg.Basemap.CacheDir,
			cfg.Basemap.CacheSize,
		)
	}

	renderer := render.New(src, render.Options{
		Basemap:     cfg.BasemapEnabled(),
		MaxZoom:     cfg.Basemap.MaxZoom,
		MaxTiles:    cfg.Basemap.MaxTiles,
		Concurrency: cfg.Basemap.Concurrency,
		Style:       style,
	})

	log.Info().
		Bool("basemap", renderer.Basemap()).
		Str("tile_url", cfg.Basemap.URL).
		Str("cache_dir", cfg.Basemap.CacheDir).
		Msg("Starting polyviz")

	uiOpts := tui.Options{
		Timeout:     cfg.Basemap.Timeout,
		Attribution: cfg.Basemap.Attribution,
	}
	if opts.Args.File != "" {
		return tui.NewWithPath(renderer, uiOpts, opts.Args.File), nil
	}
	return tui.New(renderer, uiOpts), nil
}

// loadConfig reads the config file, if any, and applies command line overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	if opts.Offline {
		cfg.SetBasemap(false)
	}
	if opts.TileURL != "" && opts.TileURL != cfg.Basemap.URL {
		cfg.Basemap.URL = opts.TileURL
		if cfg.Basemap.Attribution == config.DefaultAttribution {
			cfg.Basemap.Attribution = ""
		}
	}
	if opts.CacheDir != "" {
		cfg.Basemap.CacheDir = opts.CacheDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
