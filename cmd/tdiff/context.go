package main

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/NamanBalaji/tdiff/internal/config"
	"github.com/NamanBalaji/tdiff/internal/engine"
	"github.com/NamanBalaji/tdiff/internal/filesystem"
	"github.com/NamanBalaji/tdiff/internal/logger"
	"github.com/NamanBalaji/tdiff/internal/render"
	"github.com/NamanBalaji/tdiff/internal/repository"
)

type commandContext struct {
	debugFlag  *bool
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	fs   *filesystem.OSFileSystem
	repo *repository.BboltRepository
}

func newCommandContext(debugFlag *bool, configFlag *string) *commandContext {
	return &commandContext{
		debugFlag:  debugFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}

		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		debug := c.debugFlag != nil && *c.debugFlag
		if err := logger.InitLogging(debug, cfg.LogPath); err != nil {
			c.configErr = err
			return
		}
		logger.Debugf("Loaded configuration from %s", path)

		c.config = cfg
		c.fs = filesystem.NewOSFileSystem(cfg.MaxManifestSize)
	})
	return c.config, c.configErr
}

// catalog opens the manifest catalog. Unless create is set, a missing
// database yields nil without error.
func (c *commandContext) catalog(create bool) (*repository.BboltRepository, error) {
	if c.repo != nil {
		return c.repo, nil
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	path := cfg.Catalog.Path
	exists, err := c.fs.FileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists && !create {
		return nil, nil
	}

	if err := c.fs.EnsureDirectory(filepath.Dir(path)); err != nil {
		return nil, err
	}

	repo, err := repository.NewBboltRepository(path, repository.Options{
		StoreRaw:         config.Enabled(cfg.Catalog.StoreRaw),
		CompressionLevel: cfg.Catalog.CompressionLevel,
	})
	if err != nil {
		return nil, err
	}

	c.repo = repo
	return repo, nil
}

func (c *commandContext) engine(catalog engine.Catalog) (*engine.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	return engine.New(&engine.Config{
		MaxParallelDecodes: cfg.MaxParallelDecodes,
		IdentityHash:       cfg.IdentityHash,
	}, catalog)
}

func (c *commandContext) renderOptions() render.Options {
	cfg := c.config
	return render.Options{
		Style:      cfg.Render.Style,
		Color:      config.Enabled(cfg.Render.Color),
		HumanSizes: config.Enabled(cfg.Render.HumanSizes),
	}
}

// readSources loads every path, keeping read failures in the source.
func (c *commandContext) readSources(paths []string) []engine.Source {
	sources := make([]engine.Source, 0, len(paths))
	for _, p := range paths {
		data, err := c.fs.ReadManifest(p)
		sources = append(sources, engine.Source{Name: p, Data: data, Err: err})
	}
	return sources
}

func (c *commandContext) close() error {
	if c.repo == nil {
		return nil
	}
	err := c.repo.Close()
	c.repo = nil
	return err
}
