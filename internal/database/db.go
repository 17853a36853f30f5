package database

import (
	"os"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not found in environment, please configure your database")
	}

	var err error

	// Wait for the DB to come up (docker-compose starts us together)
	for i := 0; i < 5; i++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Warnf("Failed to connect to database, retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after 5 attempts: %v", err)
	}

	log.Info("Connected to MySQL")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Info("Database schema synced")
}

// Migrate syncs the schema. Split out so tests can run it against their own
// gorm connection.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductBatch{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.Return{},
		&models.ReturnItem{},
		&models.CreditNote{},
	)
}
