package hubctl

import (
	"context"
	"fmt"

	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/filestore"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
	"github.com/hubpessoal/hub/internal/server/services"
)

// OpenBackend connects to the configured database and file store.
func OpenBackend(ctx context.Context, cfg *config.Config, l logging.Logger) (*Backend, error) {
	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	store, err := filestore.NewS3Store(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	return &Backend{
		Migrate: func(ctx context.Context) error {
			l.Info(ctx, "applying migrations")
			return rm.RunMigrations(ctx, db)
		},
		Accounts: services.NewUserService(db, rm, cfg),
		Ebooks:   services.NewEbookService(db, rm, store, cfg, l),
		Close:    db.Close,
	}, nil
}
