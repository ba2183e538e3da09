// This file implements the periodic library scan: a consistency pass that
// counts what is on disk and flags imported works whose files have gone
// missing since import.

package library

import (
	"context"
	"log"
	"os"

	"github.com/shelfarr/shelfarr/internal/core"
)

// Scan walks both library roots and cross-checks imported works against
// the filesystem. Registered as the 'library-scan' job. It never mutates
// request state: a missing directory is an operator problem, not a
// pipeline event.
func Scan(ctx context.Context, app *core.App) {
	cfg := app.Config()
	for _, root := range []string{cfg.Library.EbookPath, cfg.Library.AudiobookPath} {
		if root == "" {
			continue
		}
		files, err := countFiles(root)
		if err != nil {
			log.Printf("Library scan of %s failed: %v", root, err)
			continue
		}
		log.Printf("Library scan: %d files under %s", files, root)
	}

	works, err := app.Store().ListImportedWorks()
	if err != nil {
		log.Printf("Library scan could not list imported works: %v", err)
		return
	}
	for _, w := range works {
		if w.LibraryPath == nil {
			continue
		}
		if _, err := os.Stat(*w.LibraryPath); os.IsNotExist(err) {
			log.Printf("Library scan: files for %q missing from %s", w.Title, *w.LibraryPath)
		}
	}
}
