package commands

import (
	"github.com/go-nacelle/pgtrigger"
)

// loadManifest reads the manifest, applying the --url override ahead of
// the manifest's own databaseUrl.
func loadManifest(manifestPath, databaseURL string) (pgtrigger.Manifest, error) {
	manifest, err := pgtrigger.LoadManifest(manifestPath)
	if err != nil {
		return pgtrigger.Manifest{}, err
	}

	if databaseURL != "" {
		manifest.Provider.DatabaseURL = databaseURL
	}

	return manifest, nil
}
