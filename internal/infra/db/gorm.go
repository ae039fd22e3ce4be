package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catering/internal/domain/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 接続設定
type Options struct {
	Driver string
	DSN    string

	//プールの上限（リクエストは空きが出るまで待つ）
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	ApplicationName string
	LogLevel        logger.LogLevel
}

// Connect はDBに接続して *gorm.DB を返す。
func Connect(opts Options) (*gorm.DB, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		return connectPostgres(opts)
	case DriverSQLite:
		return OpenSQLite(opts.DSN, opts.LogLevel)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
}

// pgxで接続設定を作り、database/sqlのプールをgormに渡す
func connectPostgres(opts Options) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgx.ParseConfig: %w", err)
	}
	if opts.ApplicationName != "" {
		pgxCfg.RuntimeParams["application_name"] = opts.ApplicationName
	}

	sqlDB := stdlib.OpenDB(*pgxCfg)
	applyPool(sqlDB, opts)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(opts.LogLevel))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	return gdb, nil
}

// OpenSQLite はローカル開発・テスト用。
// インメモリDBは接続ごとに別物になるので接続は1本に固定する。
func OpenSQLite(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return gdb, nil
}

func applyPool(sqlDB *sql.DB, opts Options) {
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	if level == 0 {
		level = logger.Warn
	}
	return &gorm.Config{
		//一意制約違反を gorm.ErrDuplicatedKey にする
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// Migrate はこのサービスが使うテーブルを作る。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.User{},
		&model.MenuItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.AdminLog{},
	)
}

// Ping はヘルスチェック用。
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
