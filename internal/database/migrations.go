package database

import (
	"log/slog"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"avatar-chat/internal/model"
)

// Migrate brings the schema up to date. A clean database is initialised from
// the current models in one step; existing databases replay the numbered
// migrations they have not seen yet.
func Migrate(db *gorm.DB) error {
	return GetMigrator(db).Migrate()
}

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:       "0001_create_users",
			Migrate:  createUsers,
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("users")
			},
		},
		{
			ID:       "0002_create_search_histories",
			Migrate:  createSearchHistories,
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("search_histories")
			},
		},
	})

	migrator.InitSchema(func(tx *gorm.DB) error {
		slog.Info("clean database detected, running full schema initialization")
		return tx.AutoMigrate(&model.User{}, &model.SearchHistory{})
	})

	return migrator
}

// Snapshots of the tables as they were introduced. They must not follow later
// changes to the model package.

type userV1 struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Email        string `gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

func (userV1) TableName() string { return "users" }

type searchHistoryV1 struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index:idx_search_history_user_created,priority:1"`
	User      *userV1   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Query     string    `gorm:"size:500;not null"`
	Response  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_search_history_user_created,priority:2,sort:desc"`
}

func (searchHistoryV1) TableName() string { return "search_histories" }

func createUsers(tx *gorm.DB) error {
	return tx.AutoMigrate(&userV1{})
}

func createSearchHistories(tx *gorm.DB) error {
	return tx.AutoMigrate(&searchHistoryV1{})
}
