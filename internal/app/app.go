package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"family-ledger/internal/config"
	"family-ledger/internal/db"
	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	ledgerdomain "family-ledger/internal/domain/ledger"
	profiledomain "family-ledger/internal/domain/profile"
	sessiondomain "family-ledger/internal/domain/session"
	"family-ledger/internal/domain/watcher"
	"family-ledger/internal/identity"
	"family-ledger/internal/pointerfeed"
	"family-ledger/internal/repository/inmemory"
	familyrepo "family-ledger/internal/repository/postgres/family"
	joinrequestrepo "family-ledger/internal/repository/postgres/joinrequest"
	ledgerrepo "family-ledger/internal/repository/postgres/ledger"
	profilerepo "family-ledger/internal/repository/postgres/profile"
	sessionrepo "family-ledger/internal/repository/postgres/session"
	"family-ledger/internal/transport/httpserver"
	"family-ledger/internal/transport/httpserver/handler"
	authhandler "family-ledger/internal/transport/httpserver/handler/auth"
	"family-ledger/internal/transport/httpserver/handler/common"
	familyhandler "family-ledger/internal/transport/httpserver/handler/families"
	ledgerhandler "family-ledger/internal/transport/httpserver/handler/ledger"
	"family-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	log        logger.Logger
}

// repositories is the store adapter handle every service is built from.
type repositories struct {
	sessions sessiondomain.Repository
	families familydomain.Repository
	requests joinrequestdomain.Repository
	profiles profiledomain.Repository
	ledger   ledgerdomain.Repository
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}
	return Build(cfg, log)
}

// Build wires every component from cfg. It is split from New so tests can
// build the app without touching the environment.
func Build(cfg config.Config, log logger.Logger) (*App, error) {
	application := &App{cfg: cfg, log: log}

	repos, err := application.openStore()
	if err != nil {
		return nil, err
	}

	feed, err := application.openFeed()
	if err != nil {
		_ = application.Close()
		return nil, err
	}

	log.Info("app: initializing services", "admin_check_policy", cfg.Membership.AdminCheckPolicy)
	enforce := cfg.Membership.EnforceAdmin()
	provider := identityProvider(cfg.Supabase)

	profiles := profiledomain.NewService(repos.profiles)
	families := familydomain.NewService(repos.families, feed, log, familydomain.Options{
		EnforceAdmin:    enforce,
		CascadePageSize: cfg.DB.CascadePageSize,
	})
	requests := joinrequestdomain.NewService(repos.requests, families, feed, log, joinrequestdomain.Options{EnforceAdmin: enforce})
	guard := sessiondomain.NewGuard(repos.sessions, provider, log)
	watch := watcher.New(profiles, feed, cfg.Membership.WatchResyncInterval, log)
	ledger := ledgerdomain.NewService(repos.ledger)

	log.Info("app: initializing router")
	handlers := handler.New(
		common.New(profiles, log),
		authhandler.New(guard, log),
		familyhandler.New(families, requests, watch, log),
		ledgerhandler.New(ledger, profiles, log),
	)
	router := httpserver.NewRouter(cfg, handlers, profiles, log)

	log.Info("app: initializing http server")
	application.httpServer = httpserver.New(cfg, router)
	return application, nil
}

func (a *App) openStore() (repositories, error) {
	if a.cfg.StoreBackend == config.StoreBackendMemory {
		a.log.Warn("app: using in-memory store, data is lost on restart")
		store := inmemory.NewStore()
		return repositories{
			sessions: store.Sessions(),
			families: store.Families(),
			requests: store.JoinRequests(),
			profiles: store.Profiles(),
			ledger:   store.Ledger(),
		}, nil
	}

	a.log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(a.cfg.DB, a.log)
	if err != nil {
		return repositories{}, err
	}
	a.db = dbConn

	if err := db.Migrate(dbConn, a.log); err != nil {
		_ = a.Close()
		return repositories{}, fmt.Errorf("migrate: %w", err)
	}

	transactor := db.NewTransactor(dbConn, a.cfg.DB.TxMaxRetries)
	return repositories{
		sessions: sessionrepo.NewPostgres(transactor),
		families: familyrepo.NewPostgres(transactor),
		requests: joinrequestrepo.NewPostgres(transactor),
		profiles: profilerepo.NewPostgres(dbConn),
		ledger:   ledgerrepo.NewPostgres(dbConn),
	}, nil
}

// openFeed picks Redis pub/sub when configured so watchers in other
// processes see pointer writes; otherwise changes stay in process.
func (a *App) openFeed() (pointerfeed.Feed, error) {
	if a.cfg.Redis.Addr == "" {
		a.log.Info("app: pointer feed in process")
		return pointerfeed.NewHub(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.redis = client

	a.log.Info("app: pointer feed on redis", "addr", a.cfg.Redis.Addr, "prefix", a.cfg.Redis.ChannelPrefix)
	return pointerfeed.NewRedis(client, a.cfg.Redis.ChannelPrefix, a.log), nil
}

func identityProvider(cfg config.SupabaseConfig) identity.Provider {
	if cfg.SkipAuth {
		return identity.Mock{AccountID: cfg.MockUserID, Email: cfg.MockUserEmail}
	}
	return identity.NewSupabase(cfg)
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
