// Package handlers implements the HTTP surface of the service. Handlers are
// methods on API, which carries the database pool, media store, token
// manager and logger as explicitly constructed dependencies.
package handlers

import (
	"database/sql"

	"github.com/Mayank9056-MM/social-post-application/internal/config"
	"github.com/Mayank9056-MM/social-post-application/internal/logging"
	"github.com/Mayank9056-MM/social-post-application/internal/media"
	"github.com/Mayank9056-MM/social-post-application/internal/monitoring"
	"github.com/Mayank9056-MM/social-post-application/internal/utils"
)

type API struct {
	db      *sql.DB
	media   media.Store
	tokens  *utils.TokenManager
	log     logging.Logger
	monitor *monitoring.Service
	cfg     *config.Config
}

func New(
	db *sql.DB,
	mediaStore media.Store,
	tokens *utils.TokenManager,
	log logging.Logger,
	monitor *monitoring.Service,
	cfg *config.Config,
) *API {
	return &API{
		db:      db,
		media:   mediaStore,
		tokens:  tokens,
		log:     log,
		monitor: monitor,
		cfg:     cfg,
	}
}
