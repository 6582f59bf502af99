package db

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	companyadapters "company_sync/internal/feature/companies/adapters"
	"company_sync/internal/platform/config"
)

const (
	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
	defaultDBUser  = "postgres"
)

// Opener は DSN から gorm の接続を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は接続 URL にサービスキーをパスワードとして埋め込んだ DSN を返します。
// URL にユーザー名がなければ postgres を使います。
func BuildDSN(cfg config.DBConfig) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
	if cfg.Key != "" {
		user := defaultDBUser
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, cfg.Key)
	}
	return u.String(), nil
}

// ConnectWithRetry は timeout の間 retryInterval ごとに接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInterval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout

	var db *gorm.DB
	op := func() error {
		var err error
		db, err = open(dsn)
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Printf("DB connect failed, retrying in %v...: %v", next, err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
	}
	return db, nil
}

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
		// トランザクションプーラー経由ではプリペアドステートメントが使えない
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// OpenDB はストアに接続し、RunMigrations が有効なら companies テーブルをマイグレーションします。
func OpenDB(cfg config.Config) (*gorm.DB, error) {
	dsn, err := BuildDSN(cfg.DB)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, connectTimeout, openPostgres)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := companyadapters.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
