// This file pre-materializes a compressed bundle of multi-file imports:
// a result that arrives as a directory of files gets a sibling zip, so a
// later "download everything" request is a single send instead of an
// on-demand compression pass. Best-effort polish after a successful
// import.

package library

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// Prematerialize writes <dir>.zip next to dir when the imported result
// holds more than one file. Single-file results need no bundle, and an
// existing bundle is kept, so a re-run is a no-op. Failures are logged
// and swallowed: the import has already succeeded by the time this runs.
func Prematerialize(ctx context.Context, dir string) {
	bundlePath := dir + ".zip"
	if _, err := os.Stat(bundlePath); err == nil {
		return // already materialized
	}

	count, err := countFiles(dir)
	if err != nil {
		log.Printf("Cannot inspect %s for bundling: %v", dir, err)
		return
	}
	if count < 2 {
		return
	}

	if err := writeBundle(ctx, dir, bundlePath); err != nil {
		log.Printf("Could not bundle %s: %v", dir, err)
		os.Remove(bundlePath)
	}
}

func countFiles(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			count++
		}
		return nil
	})
	return count, err
}

// writeBundle zips dir's contents with entry paths rooted at the
// directory's own name.
func writeBundle(ctx context.Context, dir, bundlePath string) error {
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		dir: filepath.Base(dir),
	})
	if err != nil {
		return err
	}

	out, err := os.Create(bundlePath)
	if err != nil {
		return err
	}
	defer out.Close()

	return archives.Zip{}.Archive(ctx, out, files)
}
