package metainfo_test

import (
	"bytes"
	"testing"

	ametainfo "github.com/anacrolix/torrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/tdiff/pkg/torrent/metainfo"
)

// Parsed fields and info-hash must agree with anacrolix/torrent.
func TestAgreesWithAnacrolix(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{
			name: "single file",
			data: map[string]any{
				"announce": "http://tracker.example/announce",
				"info": map[string]any{
					"name":         "movie.mkv",
					"piece length": 32768,
					"pieces":       bytes.Repeat([]byte{0x5a}, 40),
					"length":       40000,
				},
			},
		},
		{
			name: "multi file",
			data: map[string]any{
				"announce-list": [][]string{{"http://a/announce"}},
				"info": map[string]any{
					"name":         "season",
					"piece length": 16384,
					"pieces":       bytes.Repeat([]byte{0x01, 0x02}, 30),
					"files": []map[string]any{
						{"length": 20000, "path": []string{"Show.E01.mkv"}},
						{"length": 9000, "path": []string{"extras", "Show.E01.srt"}},
						{"length": 0, "path": []string{"empty.nfo"}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encode(t, tt.data)

			ours, err := metainfo.ParseManifestBytes(data)
			require.NoError(t, err)

			theirs, err := ametainfo.Load(bytes.NewReader(data))
			require.NoError(t, err)
			info, err := theirs.UnmarshalInfo()
			require.NoError(t, err)

			hash, err := ours.InfoHash(data)
			require.NoError(t, err)
			assert.Equal(t, [20]byte(theirs.HashInfoBytes()), hash)

			assert.Equal(t, info.Name, ours.Name)
			assert.Equal(t, info.PieceLength, ours.PieceLength)
			assert.Equal(t, info.Pieces, ours.Pieces)
			assert.Equal(t, info.TotalLength(), ours.TotalSize())
			assert.Equal(t, info.NumPieces(), ours.PieceCount())

			require.Len(t, ours.Files, len(info.Files))
			for i, f := range info.Files {
				assert.Equal(t, f.Length, ours.Files[i].Length)
				assert.Equal(t, f.Path, ours.Files[i].Path)
			}
		})
	}
}
