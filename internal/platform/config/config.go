// Package config loads process configuration from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrMissing は必須の設定値が未設定または不正な場合のエラーです。
var ErrMissing = errors.New("missing or invalid configuration")

// EnvFiles は読み込む .env ファイルです。先に読んだファイルの値が優先されます。
var EnvFiles = []string{".env.local", ".env.production"}

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// DBConfig はストアへの接続設定です。
type DBConfig struct {
	URL string `env:"SUPABASE_DB_URL" validate:"required,url"`
	Key string `env:"SUPABASE_SERVICE_ROLE_KEY" validate:"required"`
}

// MarketConfig はマーケットデータ API の設定です。
type MarketConfig struct {
	APIKey  string `env:"ALPHA_VANTAGE_API_KEY" validate:"required"`
	BaseURL string `env:"ALPHA_VANTAGE_BASE_URL" validate:"required,url"`
}

// SheetConfig はスプレッドシートの取得元です。
type SheetConfig struct {
	URL string `env:"DROPBOX_URL" validate:"required,url"`
}

// RedisConfig は相場キャッシュの接続先です。Host が空の場合キャッシュは使いません。
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
}

// Enabled は Redis が設定されているかどうかを返します。
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// Addr は host:port 形式のアドレスを返します。
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

// JWTConfig は管理 API の署名鍵です。
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" validate:"required"`
}

// Config はアプリケーション全体の設定です。
type Config struct {
	DB     DBConfig
	Market MarketConfig
	Sheet  SheetConfig
	Redis  RedisConfig
	JWT    JWTConfig

	FieldSetsPath string // RECONCILE_FIELDSETS
	RunMigrations bool   // RUN_MIGRATIONS
	HTTPPort      string // PORT
}

// Section は Require で検証する設定のまとまりです。
type Section int

const (
	SectionDB Section = iota
	SectionMarket
	SectionSheet
	SectionJWT
)

func (s Section) String() string {
	switch s {
	case SectionDB:
		return "database"
	case SectionMarket:
		return "market data"
	case SectionSheet:
		return "spreadsheet"
	case SectionJWT:
		return "jwt"
	default:
		return "unknown"
	}
}

// Load は .env ファイルを読み込んだ上で環境変数から設定を組み立てます。存在しないファイルは無視します。
func Load() Config {
	for _, f := range EnvFiles {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("loaded env file", "file", f)
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load env file", "file", f, "error", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv は getenv から設定を組み立てます。
func FromEnv(getenv func(string) string) Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	baseURL := get("ALPHA_VANTAGE_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAlphaVantageBaseURL
	}
	migrate, _ := strconv.ParseBool(get("RUN_MIGRATIONS"))
	port := get("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		DB:     DBConfig{URL: get("SUPABASE_DB_URL"), Key: get("SUPABASE_SERVICE_ROLE_KEY")},
		Market: MarketConfig{APIKey: get("ALPHA_VANTAGE_API_KEY"), BaseURL: strings.TrimRight(baseURL, "/")},
		Sheet:  SheetConfig{URL: get("DROPBOX_URL")},
		Redis:  RedisConfig{Host: get("REDIS_HOST"), Port: get("REDIS_PORT"), Password: getenv("REDIS_PASSWORD")},
		JWT:    JWTConfig{Secret: getenv("JWT_SECRET")},

		FieldSetsPath: get("RECONCILE_FIELDSETS"),
		RunMigrations: migrate,
		HTTPPort:      port,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーに環境変数名を出すため env タグをフィールド名として使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Require は指定されたセクションの設定値を検証し、不足している環境変数名をまとめたエラーを返します。
func (c Config) Require(sections ...Section) error {
	var missing []string
	for _, s := range sections {
		var target any
		switch s {
		case SectionDB:
			target = c.DB
		case SectionMarket:
			target = c.Market
		case SectionSheet:
			target = c.Sheet
		case SectionJWT:
			target = c.JWT
		default:
			return fmt.Errorf("unknown config section %d", s)
		}

		err := validate.Struct(target)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			missing = append(missing, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}
