package reconcile

import (
	"strings"

	"github.com/NamanBalaji/tdiff/internal/descriptor"
)

// Similarity scores, before the index proximity bonus.
const (
	scoreFingerprint   = 0.9
	scoreFullPath      = 0.8
	scoreName          = 0.7
	scoreKeyName       = 0.6
	scoreKeyNamePart   = 0.5
	scoreNoKeyName     = 0.3
	scoreKeyNameDiffer = 0.2
	scoreExtDiffer     = 0.1

	proximityWindow = 5
)

// Compare scores how likely a and b are the same file. Files of
// different sizes are never the same and score 0; every other pair
// scores at least 0.09.
func Compare(a, b *descriptor.File) float64 {
	if a.Size != b.Size {
		return 0
	}

	bonus := proximityBonus(a.Index, b.Index)

	switch {
	case a.Fingerprint == b.Fingerprint:
		return scoreFingerprint + bonus
	case a.FullPath == b.FullPath:
		return scoreFullPath + bonus
	case a.ExtName != b.ExtName:
		return scoreExtDiffer + bonus
	case a.Name == b.Name:
		return scoreName + bonus
	case a.KeyName == "" || b.KeyName == "":
		return scoreNoKeyName + bonus
	case a.KeyName == b.KeyName:
		return scoreKeyName + bonus
	case strings.Contains(a.KeyName, b.KeyName) || strings.Contains(b.KeyName, a.KeyName):
		return scoreKeyNamePart + bonus
	default:
		return scoreKeyNameDiffer + bonus
	}
}

// proximityBonus favours files at nearby positions in their lists:
// +0.09 for equal indexes down to -0.01 four apart, 0 beyond.
func proximityBonus(i, j int) float64 {
	d := i - j
	if d < 0 {
		d = -d
	}
	if d >= proximityWindow {
		return 0
	}
	return float64(proximityWindow-d)*0.02 - 0.01
}
