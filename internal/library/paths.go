package library

import (
	"path/filepath"
	"strings"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/models"
	"github.com/shelfarr/shelfarr/internal/util"
)

// DestinationFor computes the library directory a work's files belong in:
// the medium's configured root, then one directory per author, then one
// per title, both sanitized for filesystem use.
func DestinationFor(cfg *config.Config, w *models.Work) string {
	return filepath.Join(
		cfg.LibraryRoot(string(w.Medium)),
		util.SanitizeFilename(w.Author),
		util.SanitizeFilename(w.Title),
	)
}

// RemapPath translates a path as reported by a download client into this
// process's filesystem view. The client's own mapping wins over the
// global prefix pair; a path matching neither passes through unchanged.
func RemapPath(path string, mapping *config.PathMapping, remotePrefix, localPrefix string) string {
	if mapping != nil && mapping.Remote != "" && strings.HasPrefix(path, mapping.Remote) {
		return filepath.Join(mapping.Local, strings.TrimPrefix(path, mapping.Remote))
	}
	if remotePrefix != "" && strings.HasPrefix(path, remotePrefix) {
		return filepath.Join(localPrefix, strings.TrimPrefix(path, remotePrefix))
	}
	return path
}
