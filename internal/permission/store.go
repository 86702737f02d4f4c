package permission

import (
	"context"
	"database/sql"
	"fmt"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/repository"
	"docvault/internal/repository/mongodb"
	"docvault/internal/repository/postgres"
)

// CloseFunc releases whatever OpenStore connected to.
type CloseFunc func(context.Context) error

// OpenStore returns the snapshot store named by cfg.Permission.Store ("postgres" or "mongo").
func OpenStore(ctx context.Context, cfg *config.AppConfig, db *sql.DB) (repository.PermissionTableRepository, CloseFunc, error) {
	switch cfg.Permission.Store {
	case "", "postgres":
		if db == nil {
			return nil, nil, fmt.Errorf("postgres permission store needs a database connection")
		}
		return postgres.NewPermissionTablePostgres(db), func(context.Context) error { return nil }, nil
	case "mongo":
		client, mdb, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		store := mongodb.NewPermissionTableMongo(mdb, cfg.Mongo.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, client.Disconnect, nil
	default:
		return nil, nil, fmt.Errorf("unknown permission store %q", cfg.Permission.Store)
	}
}
