package database

import (
	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
)

func WithConnection(databaseURL string, logger log.Logger, f func(db pgtrigger.DB) error) error {
	return pgtrigger.WithConnection(databaseURL, logger, f)
}
