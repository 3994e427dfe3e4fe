package internal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/2beens/fitrank/internal/config"
	"github.com/2beens/fitrank/internal/db"
	"github.com/2beens/fitrank/internal/docstore"
)

type OpenStoreParams struct {
	PostgresPassword string
	MongoURI         string
	TracingEnabled   bool
}

// OpenedStore is the document store picked by the store_backend setting, together
// with the connection behind it (at most one of DBPool and MongoDB is set).
type OpenedStore struct {
	Store   docstore.Store
	DBPool  *pgxpool.Pool
	MongoDB *mongo.Database
}

func OpenStore(ctx context.Context, cfg *config.Config, params OpenStoreParams) (*OpenedStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		psqlStore := docstore.NewPsqlStore(dbPool)
		if err := psqlStore.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure document schema: %w", err)
		}
		return &OpenedStore{Store: psqlStore, DBPool: dbPool}, nil
	case config.StoreBackendMongo:
		mongoDB, err := docstore.ConnectMongo(ctx, params.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return &OpenedStore{Store: docstore.NewMongoStore(mongoDB), MongoDB: mongoDB}, nil
	case config.StoreBackendMemory:
		log.Warnln("using in-memory document store, nothing will be persisted")
		return &OpenedStore{Store: docstore.NewMemStore()}, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
}

func (o *OpenedStore) Close(ctx context.Context) {
	if o.DBPool != nil {
		log.Debugln("closing db pool ...")
		o.DBPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
	if o.MongoDB != nil {
		if err := o.MongoDB.Client().Disconnect(ctx); err != nil {
			log.Errorf("failed to disconnect mongo: %s", err)
		}
	}
}
