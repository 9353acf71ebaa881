package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pay-chain.backend/internal/config"
	domainbus "pay-chain.backend/internal/domain/bus"
	infrabus "pay-chain.backend/internal/infrastructure/bus"
	plog "pay-chain.backend/pkg/logger"
)

type fakeBusConn struct{}

func (fakeBusConn) Publish(context.Context, domainbus.Message) error { return nil }
func (fakeBusConn) Close() error                                    { return nil }

type closeRecordingBus struct{ closed chan struct{} }

func (closeRecordingBus) Publish(context.Context, domainbus.Message) error { return nil }
func (b closeRecordingBus) Close() error {
	close(b.closed)
	return nil
}

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origOpenDB := openDB
	origConnectBus := connectBus
	origRunMigrations := runMigrations
	origRunServer := runServer
	origGetStdDB := getStdDB

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		openDB = origOpenDB
		connectBus = origConnectBus
		runMigrations = origRunMigrations
		runServer = origRunServer
		getStdDB = origGetStdDB
	})
}

func baseTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: "18080",
			Env:  "development",
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			DBName:   "paychain",
			SSLMode:  "disable",
		},
		Redis: config.RedisConfig{
			URL:      "redis://localhost:6379",
			PASSWORD: "",
		},
		Bus: config.BusConfig{
			Brokers:    "localhost:4222",
			ClientID:   "payment-service-test",
			StreamName: "PAYMENTS_TEST",
		},
		ZaloPay: config.ZaloPayConfig{
			AppID: "zp-app",
			Key1:  "key1",
			Key2:  "key2",
		},
		PayOS: config.PayOSConfig{
			ClientID:    "po-client",
			APIKey:      "po-api-key",
			ChecksumKey: "po-checksum-key",
		},
		Outbox: config.OutboxConfig{
			BatchSize:     50,
			MaxRetries:    5,
			RetentionDays: 7,
		},
	}
}

func fakeConnectBus(context.Context, infrabus.Config) (domainbus.Publisher, error) {
	return fakeBusConn{}, nil
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return errors.New("redis down") }

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected redis init error")
	}
}

func TestRunMainProcess_DBOpenError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) { return nil, errors.New("db open failed") }

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected db open error")
	}
}

func TestRunMainProcess_BusConnectError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_bus_err?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return nil }
	connectBus = func(context.Context, infrabus.Config) (domainbus.Publisher, error) {
		return nil, errors.New("bus unreachable")
	}

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected bus connect error")
	}
}

func TestRunMainProcess_MigrationsError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_migrations_err?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return errors.New("migration failed") }

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected migrations error")
	}
}

func TestRunMainProcess_ServerRunError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_server_err?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return nil }
	connectBus = fakeConnectBus
	runServer = func(*gin.Engine, string) error { return errors.New("listen failed") }

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected server run error")
	}
}

func TestRunMainProcess_SuccessPath(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_success?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return nil }
	connectBus = fakeConnectBus
	runServer = func(*gin.Engine, string) error { return nil }

	if err := runMainProcess(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunMainProcess_SuccessPath_WithDotenvLoadError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return errors.New("dotenv missing") }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_success_dotenv_error?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return nil }
	connectBus = fakeConnectBus
	runServer = func(*gin.Engine, string) error { return nil }

	if err := runMainProcess(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultOpenDBAndRunServerWrappers_ExecuteBodies(t *testing.T) {
	withMainHooks(t)

	// Cover default openDB wrapper body.
	origOpen := openDB
	defer func() { openDB = origOpen }()
	openDB = func(dsn string) (*gorm.DB, error) {
		return origOpen(dsn)
	}
	_, err := openDB("host=localhost port=-1 user=postgres password=postgres dbname=paychain sslmode=disable")
	if err == nil {
		t.Fatal("expected openDB wrapper to fail on invalid DSN")
	}

	// Cover default runServer wrapper body.
	origRun := runServer
	defer func() { runServer = origRun }()
	runServer = func(r *gin.Engine, port string) error {
		return origRun(r, port)
	}
	engine := gin.New()
	err = runServer(engine, "invalid-port")
	if err == nil {
		t.Fatal("expected runServer wrapper to fail on invalid port")
	}
}

func TestRunMainProcess_ProductionModeAndPingWarnPath(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Server.Env = "production"
		return cfg
	}
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		db, err := gorm.Open(sqlite.Open("file:main_prod_ping_warn?mode=memory&cache=shared"), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close() // force Ping() error branch
		}
		return db, nil
	}
	runMigrations = func(string) error { return nil }
	connectBus = fakeConnectBus
	runServer = func(*gin.Engine, string) error { return nil }

	if err := runMainProcess(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gin.Mode() != gin.ReleaseMode {
		t.Fatalf("expected release mode, got %s", gin.Mode())
	}
}

func TestRunMainProcess_GetStdDBError(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_getstdb_error?mode=memory&cache=shared"), &gorm.Config{})
	}
	getStdDB = func(*gorm.DB) (*sql.DB, error) { return nil, errors.New("stdb failed") }
	connectBus = fakeConnectBus
	runServer = func(*gin.Engine, string) error { return nil }

	err := runMainProcess()
	if err == nil {
		t.Fatal("expected generic database object error")
	}
}

func TestRunMainProcess_GracefulShutdownSignalClosesBus(t *testing.T) {
	withMainHooks(t)

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
	initRedis = func(string, string) error { return nil }
	openDB = func(string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:main_graceful_signal?mode=memory&cache=shared"), &gorm.Config{})
	}
	runMigrations = func(string) error { return nil }
	closed := make(chan struct{})
	connectBus = func(context.Context, infrabus.Config) (domainbus.Publisher, error) {
		return closeRecordingBus{closed: closed}, nil
	}
	runServer = func(*gin.Engine, string) error {
		_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	if err := runMainProcess(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected bus to be closed after SIGINT")
	}
}
