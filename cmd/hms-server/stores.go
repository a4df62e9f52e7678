package main

import (
	"context"
	"fmt"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/apilog"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/hospital"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/registry"
	"github.com/hms/hms/internal/platform/cbstore"
	"github.com/hms/hms/internal/platform/db"
)

// stores is the set of repositories the server runs on, backed by whichever
// driver STORE_DRIVER selects.
type stores struct {
	identities identity.Repository
	hospitals  hospital.Repository
	doctors    doctor.Repository
	patients   patient.Repository
	apilogs    apilog.Repository
	tx         registry.Transactor
	probe      db.Probe
	close      func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
			Schema:   cfg.DBSchema,
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			identities: identity.NewRepoPG(pool),
			hospitals:  hospital.NewRepoPG(pool),
			doctors:    doctor.NewRepoPG(pool),
			patients:   patient.NewRepoPG(pool),
			apilogs:    apilog.NewRepoPG(pool),
			tx:         db.NewTransactor(pool),
			probe:      db.PoolProbe(pool),
			close:      pool.Close,
		}, nil

	case config.DriverCouchbase:
		store, err := connectCouchbase(cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			identities: identity.NewRepoCB(store),
			hospitals:  hospital.NewRepoCB(store),
			doctors:    doctor.NewRepoCB(store),
			patients:   patient.NewRepoCB(store),
			apilogs:    apilog.NewRepoCB(store),
			tx:         store,
			probe:      store.Probe(),
			close:      func() { _ = store.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func connectCouchbase(cfg *config.Config) (*cbstore.Store, error) {
	return cbstore.Connect(cbstore.Options{
		URL:      cfg.CouchbaseURL,
		Username: cfg.CouchbaseUsername,
		Password: cfg.CouchbasePassword,
		Bucket:   cfg.CouchbaseBucket,
	})
}
