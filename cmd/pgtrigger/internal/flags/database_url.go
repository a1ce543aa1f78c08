package flags

import (
	"fmt"
	"net/url"

	"github.com/go-nacelle/pgtrigger"
	"github.com/spf13/cobra"
)

// RegisterDatabaseURLFlag registers --url. An explicit flag wins, then the
// DATABASE_URL fallback, then the PG* environment synthesis. The manifest's
// own databaseUrl beats the synthesized default but not an explicit flag;
// commands layer that themselves.
func RegisterDatabaseURLFlag(cmd *cobra.Command, databaseURL *string) {
	defaultURL := pgtrigger.DefaultDatabaseURL()
	if defaultURL == "" {
		defaultURL = pgtrigger.BuildDatabaseURL()
	}

	masked, err := maskDatabasePassword(defaultURL)
	if err != nil {
		panic(err)
	}

	cmd.PersistentFlags().StringVarP(
		databaseURL,
		"url", "u",
		"",
		fmt.Sprintf("The database connection URL (default %s)", masked),
	)
}

func maskDatabasePassword(databaseURL string) (string, error) {
	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	if parsedURL.User != nil {
		if _, ok := parsedURL.User.Password(); ok {
			parsedURL.User = url.UserPassword(parsedURL.User.Username(), "xxxxx")
		}
	}

	return parsedURL.String(), nil
}
