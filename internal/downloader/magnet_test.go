package downloader_test

import (
	"testing"

	"github.com/shelfarr/shelfarr/internal/downloader"
)

func TestExtractInfoHash(t *testing.T) {
	testCases := []struct {
		name   string
		magnet string
		want   string
	}{
		{
			name:   "uppercase hash is lowercased",
			magnet: "magnet:?xt=urn:btih:ABCDEF0123456789ABCDEF0123456789ABCDEF01",
			want:   "abcdef0123456789abcdef0123456789abcdef01",
		},
		{
			name:   "hash among other parameters",
			magnet: "magnet:?dn=Some+Book&xt=urn:btih:abcdef0123456789abcdef0123456789abcdef01&tr=udp%3A%2F%2Ftracker",
			want:   "abcdef0123456789abcdef0123456789abcdef01",
		},
		{
			name:   "not a magnet",
			magnet: "https://example.com/file.torrent",
			want:   "",
		},
		{
			name:   "base32 hash is not recognized",
			magnet: "magnet:?xt=urn:btih:MFRGG43FMZQW4ZDJON2GK3TBNZSXG5DJN5XA",
			want:   "",
		},
		{
			name:   "truncated hash",
			magnet: "magnet:?xt=urn:btih:abcdef",
			want:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := downloader.ExtractInfoHash(tc.magnet); got != tc.want {
				t.Errorf("ExtractInfoHash(%q) = %q, want %q", tc.magnet, got, tc.want)
			}
		})
	}
}
