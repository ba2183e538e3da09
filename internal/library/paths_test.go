package library_test

import (
	"path/filepath"
	"testing"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/library"
	"github.com/shelfarr/shelfarr/internal/models"
)

func TestDestinationFor(t *testing.T) {
	cfg := &config.Config{}
	cfg.Library.EbookPath = "/books"
	cfg.Library.AudiobookPath = "/audiobooks"

	testCases := []struct {
		name string
		work models.Work
		want string
	}{
		{
			name: "ebook layout",
			work: models.Work{Title: "Dune", Author: "Frank Herbert", Medium: models.MediumEbook},
			want: filepath.Join("/books", "Frank Herbert", "Dune"),
		},
		{
			name: "audiobook root",
			work: models.Work{Title: "Dune", Author: "Frank Herbert", Medium: models.MediumAudiobook},
			want: filepath.Join("/audiobooks", "Frank Herbert", "Dune"),
		},
		{
			name: "unsafe characters sanitized",
			work: models.Work{Title: "Fahrenheit 451: The Book", Author: "Ray/Bradbury", Medium: models.MediumEbook},
			want: filepath.Join("/books", "Ray-Bradbury", "Fahrenheit 451- The Book"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := library.DestinationFor(cfg, &tc.work); got != tc.want {
				t.Errorf("DestinationFor() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRemapPath(t *testing.T) {
	mapping := &config.PathMapping{Remote: "/data/torrents", Local: "/mnt/torrents"}

	t.Run("client mapping wins", func(t *testing.T) {
		got := library.RemapPath("/data/torrents/Dune", mapping, "/data", "/mnt/global")
		if want := filepath.Join("/mnt/torrents", "Dune"); got != want {
			t.Errorf("RemapPath() = %q, want %q", got, want)
		}
	})

	t.Run("global prefix fallback", func(t *testing.T) {
		got := library.RemapPath("/data/usenet/Dune", mapping, "/data/usenet", "/mnt/usenet")
		if want := filepath.Join("/mnt/usenet", "Dune"); got != want {
			t.Errorf("RemapPath() = %q, want %q", got, want)
		}
	})

	t.Run("unmatched path passes through", func(t *testing.T) {
		got := library.RemapPath("/elsewhere/Dune", mapping, "/data/usenet", "/mnt/usenet")
		if got != "/elsewhere/Dune" {
			t.Errorf("RemapPath() = %q, want unchanged", got)
		}
	})

	t.Run("no mappings configured", func(t *testing.T) {
		got := library.RemapPath("/elsewhere/Dune", nil, "", "")
		if got != "/elsewhere/Dune" {
			t.Errorf("RemapPath() = %q, want unchanged", got)
		}
	})
}
