package infra

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"isoko/internal/models/db_models"
)

func InitPostgresql() *gorm.DB {

	dsn := os.Getenv("POSTGRES_URL")

	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		log.Printf("Error connecting to database: %v", err)
		log.Fatal("Error connecting to database")
	}

	return connectionPool
}

// Migrate keeps the tables this service owns in sync. Orders are owned
// by order management; only the columns we read are declared on the
// model, so AutoMigrate stays additive there.
func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(
		&db_models.Payment{},
		&db_models.Order{},
		&db_models.WebhookDeadLetter{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database instance: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("PostgreSQL database connection closed successfully")
	}
}
