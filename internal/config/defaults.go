package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	maxParallelDecodes = 4
	maxManifestSize    = 32 << 20
	identityHash       = HashSHA1
	storeRaw           = true
	compressionLevel   = "default"
	tableStyle         = "rounded"
	colorOutput        = true
	humanSizes         = true
)

var (
	catalogPath = filepath.Join(xdg.DataHome, appName, "catalog.db")
	logPath     = filepath.Join(xdg.StateHome, appName, appName+".log")
)
