package metainfo

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidHash is returned when an identity hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid hash")

// MagnetURI builds a magnet link for a v1 info-hash. Trackers are
// deduplicated, keeping their first position.
func MagnetURI(infoHash [20]byte, displayName string, trackers []string) string {
	q := url.Values{}
	if displayName != "" {
		q.Set("dn", displayName)
	}

	seen := make(map[string]struct{}, len(trackers))
	for _, tr := range trackers {
		if tr == "" {
			continue
		}
		if _, dup := seen[tr]; dup {
			continue
		}
		seen[tr] = struct{}{}
		q.Add("tr", tr)
	}

	uri := "magnet:?xt=urn:btih:" + hex.EncodeToString(infoHash[:])
	if encoded := q.Encode(); encoded != "" {
		uri += "&" + encoded
	}
	return uri
}

// Trackers returns the announce URL followed by every announce-list
// entry, without duplicates.
func (m *Manifest) Trackers() []string {
	var urls []string
	seen := make(map[string]struct{})

	add := func(u string) {
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return urls
}

// ParseHash accepts a hex encoded hash of any length, a 32 character
// base32 v1 info-hash, or a magnet link carrying either, and returns
// the raw hash bytes.
func ParseHash(s string) ([]byte, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "magnet:") {
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}

		xt := u.Query().Get("xt")
		if !strings.HasPrefix(xt, "urn:btih:") {
			return nil, errors.Join(ErrInvalidHash, errors.New("missing or invalid xt parameter"))
		}
		s = strings.TrimPrefix(xt, "urn:btih:")
	}

	switch {
	case len(s) == 32 && !isHex(s):
		out := make([]byte, 20)
		if _, err := base32.StdEncoding.Decode(out, []byte(strings.ToUpper(s))); err != nil {
			return nil, errors.Join(ErrInvalidHash, err)
		}
		return out, nil
	case len(s) > 0 && len(s)%2 == 0:
		out, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Join(ErrInvalidHash, err)
		}
		return out, nil
	default:
		return nil, ErrInvalidHash
	}
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
