package cmd

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/auth"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/travel-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/travel-backoffice/internal/user/postgres"
)

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both repositories use one set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return gdb, nil
}

// initSessions returns the configured session backend. The redis client is nil for the memory backend.
func initSessions(ctx context.Context, cfg internal.SessionConfig) (session.Store, *goredis.Client, error) {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(), nil, nil
	}
	rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(rdb, cfg.TTL), rdb, nil
}

// identity is the part of the graph shared by the server and the session CLI.
type identity struct {
	DB          *sqlx.DB
	Users       *user.Service
	Permissions *permission.Service
	Sessions    session.Store
	Redis       *goredis.Client
	Auth        *auth.Service
	Guard       *auth.Guard
}

func buildIdentity(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*identity, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sessions, rdb, err := initSessions(ctx, cfg.Session)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	users := user.NewService(userPostgres.NewUserRepository(gdb), cfg.Security.BCryptCost, logger)
	permissions := permission.NewService(permissionPostgres.NewPermissionRepository(db), logger)

	authSvc := auth.NewService(users, sessions, permissions, auth.Config{MinLatency: cfg.Security.LoginMinLatency}, logger)

	return &identity{
		DB:          db,
		Users:       users,
		Permissions: permissions,
		Sessions:    sessions,
		Redis:       rdb,
		Auth:        authSvc,
		Guard:       auth.NewGuard(authSvc, logger),
	}, nil
}

func (i *identity) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	_ = i.DB.Close()
}
