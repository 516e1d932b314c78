package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-service/config"
	"pizza-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=pizza port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// CreateDefaultAdmin seeds the admin account once. Running it again is a no-op
// as long as some user already holds the admin role with that email.
func CreateDefaultAdmin(db *gorm.DB, admin config.AdminConfig, cost int, logger *zap.Logger) error {
	var existing models.User
	err := db.Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("users.email = ? AND user_roles.role = ?", admin.Email, models.RoleAdmin).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), cost)
	if err != nil {
		return err
	}

	user := models.User{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: string(hashedPassword),
		Roles:    []models.UserRole{{Role: models.RoleAdmin}},
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	if logger != nil {
		logger.Info("default admin created", zap.String("email", admin.Email), zap.Uint("id", user.ID))
	}
	return nil
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
