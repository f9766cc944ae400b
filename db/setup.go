package db

import (
	"time"

	"github.com/freedmens-bureau/bureau/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDatabase(dsn string, log *zap.Logger) error {
	var err error

	DB, err = Open(postgres.Open(dsn), log)

	if err != nil {
		return err
	}

	return nil
}

// Open connects through any gorm dialector, logging slow queries and errors through log.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	config := &gorm.Config{TranslateError: true}
	if log != nil {
		config.Logger = logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	return gorm.Open(dialector, config)
}

// UseDatabase replaces the shared connection.
func UseDatabase(conn *gorm.DB) {
	DB = conn
}

// MigrateDatabase creates the tables that do not exist yet, join tables included.
func MigrateDatabase() error {
	migrator := DB.Migrator()

	for _, model := range models.All() {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
