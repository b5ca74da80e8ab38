package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database connection manager
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager creates a new database manager with connection pooling
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 newGormLogger(config.LogLevel, logger),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	redisClient, err := NewRedisClient(config.RedisURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Database and Redis connections established successfully")

	return &Manager{
		DB:     db,
		Redis:  redisClient,
		logger: logger,
	}, nil
}

// NewRedisClient parses a redis:// URL and applies the pool settings
func NewRedisClient(url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 5
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute
	redisOpts.IdleCheckFrequency = 30 * time.Second

	return redis.NewClient(redisOpts), nil
}

// newGormLogger routes SQL logs through logrus at debug level only
func newGormLogger(level string, logger *logrus.Logger) gormlogger.Interface {
	if level != "debug" {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return gormlogger.New(
		logger,
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate runs database migrations
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.ChatMessage{},
		&models.Consultation{},
		&models.ConsultationFeedback{},
		&models.SymptomStat{},
		&models.DirectoryFacility{},
		&models.SystemHealth{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase(ctx context.Context) error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	return m.Redis.Ping(ctx).Err()
}
