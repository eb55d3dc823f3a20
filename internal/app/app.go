package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"truck-ledger-go/internal/config"
	"truck-ledger-go/internal/db"
	authdomain "truck-ledger-go/internal/domain/auth"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/internal/repository/file"
	"truck-ledger-go/internal/repository/firebase"
	"truck-ledger-go/internal/repository/inmemory"
	postgresrecords "truck-ledger-go/internal/repository/postgres/records"
	redisrecords "truck-ledger-go/internal/repository/redis/records"
	"truck-ledger-go/internal/transport/httpserver"
	"truck-ledger-go/internal/transport/httpserver/cookiestore"
	"truck-ledger-go/internal/transport/httpserver/handler"
	authhandler "truck-ledger-go/internal/transport/httpserver/handler/auth"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
	ledgerhandler "truck-ledger-go/internal/transport/httpserver/handler/ledger"
	authmw "truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	stop       context.CancelFunc
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}

	log.Info("app: initializing store", "driver", cfg.StoreDriver)
	gateway, err := a.gateway(log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	a.stop = stop

	reconcilers := inmemory.NewReconcilerCache()
	go reconcilers.Run(ctx, cfg.Session.SweepInterval)

	manager := syncdomain.NewManager(syncdomain.Dependencies{
		Gateway: gateway,
		Cache:   reconcilers,
		Logger:  log,
		IdleTTL: cfg.Session.IdleTTL,
	})

	log.Info("app: initializing auth", "identity", cfg.IdentityEnabled())
	var (
		auth     *authmw.SessionAuth
		authHTTP *authhandler.Handlers
	)
	if cfg.IdentityEnabled() {
		cookies, err := cookiestore.New(cookiestore.Config{
			Name:     cfg.Cookie.Name,
			Password: cfg.Cookie.Password,
			Secure:   cfg.Cookie.Secure,
			MaxAge:   cfg.Cookie.MaxAge,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("init cookie store: %w", err)
		}
		if cfg.Cookie.Password == "" {
			log.Warn("auth: COOKIE_PASSWORD not set, logins will not survive a restart")
		}

		sessions := inmemory.NewSessionCache()
		go sessions.Run(ctx, cfg.Session.SweepInterval)

		service := authdomain.NewService(
			firebase.NewIdentityProvider(firebaseConfig(cfg.Firebase)),
			sessions,
			log,
			authdomain.WithSessionTTL(cfg.Session.IdleTTL),
		)
		auth = authmw.NewSessionAuth(service, cookies, log)
		authHTTP = authhandler.New(service, cookies, manager, log)
	} else {
		auth = authmw.NewLocalAuth(cfg.File.UserID, cfg.File.Email)
	}

	handlers := handler.New(
		common.New(string(cfg.StoreDriver), log),
		authHTTP,
		ledgerhandler.New(manager, log),
	)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, auth, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

func (a *App) gateway(log logger.Logger) (syncdomain.Gateway, error) {
	cfg := a.cfg
	switch cfg.StoreDriver {
	case config.StoreDriverFirebase:
		return firebase.NewRecordsRepository(firebaseConfig(cfg.Firebase)), nil
	case config.StoreDriverPostgres:
		dbConn, err := db.NewPostgres(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		a.db = dbConn
		if cfg.DB.AutoMigrate {
			if err := db.Migrate(dbConn, log); err != nil {
				return nil, err
			}
		}
		return postgresrecords.NewPostgres(dbConn), nil
	case config.StoreDriverRedis:
		client, err := db.NewRedis(context.Background(), cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisrecords.NewRedis(client, cfg.Redis.KeyPrefix, log), nil
	case config.StoreDriverFile:
		return file.NewRepository(cfg.File.Path), nil
	case config.StoreDriverMemory:
		return inmemory.NewRecordsRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func firebaseConfig(cfg config.FirebaseConfig) firebase.Config {
	return firebase.Config{
		APIKey:      cfg.APIKey,
		DatabaseURL: cfg.DatabaseURL,
		IdentityURL: cfg.IdentityURL,
		TokenURL:    cfg.TokenURL,
		Timeout:     cfg.Timeout,
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}

	var errs []error
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
