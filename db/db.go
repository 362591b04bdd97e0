package db

import (
	"Gin_postgres_redis_workshop_inventory/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Tool{},
		&models.ToolUnit{},
		&models.Material{},
		&models.BorrowingTransaction{},
		&models.BorrowingItem{},
		&models.BorrowingItemUnit{},
		&models.ConsumptionTransaction{},
		&models.ConsumptionItem{},
		&models.ActivityLogEntry{},
	); err != nil {
		return err
	}

	// 查某单元当前未归还的占用更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_by_unit
	  ON %s (unit_id)
	  WHERE return_date IS NULL;
	`, models.BorrowingItemUnitTable, models.BorrowingItemUnitTable)).Error; err != nil {
		return err
	}

	// 逾期清扫按 (status, due_date) 扫
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_due
	  ON %s (status, due_date);
	`, models.BorrowingTable, models.BorrowingTable)).Error; err != nil {
		return err
	}

	return nil
}
