package config

import (
	"fmt"
	"log"
	"os"

	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST         string
	DB_PORT         string
	DB_USER         string
	DB_PASSWORD     string
	DB_NAME         string
	ES_URL          string
	ES_USER         string
	ES_PASSWORD     string
	JWT_SECRET      string
	REFRESH_SECRET  string
	KAFKA_ADDRESS   string
	MEDIA_DIR       string
	PUBLIC_BASE_URL string
	SERVER_PORT     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:         os.Getenv("DB_HOST"),
		DB_PORT:         os.Getenv("DB_PORT"),
		DB_USER:         os.Getenv("DB_USER"),
		DB_PASSWORD:     os.Getenv("DB_PASSWORD"),
		DB_NAME:         os.Getenv("DB_NAME"),
		ES_URL:          os.Getenv("ES_URL"),
		ES_USER:         os.Getenv("ES_USER"),
		ES_PASSWORD:     os.Getenv("ES_PASSWORD"),
		JWT_SECRET:      os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:  os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:   os.Getenv("KAFKA_ADDRESS"),
		MEDIA_DIR:       os.Getenv("MEDIA_DIR"),
		PUBLIC_BASE_URL: os.Getenv("PUBLIC_BASE_URL"),
		SERVER_PORT:     os.Getenv("SERVER_PORT"),
	}

	if config.MEDIA_DIR == "" {
		config.MEDIA_DIR = "media"
	}
	if config.PUBLIC_BASE_URL == "" {
		config.PUBLIC_BASE_URL = "http://localhost:8080"
	}
	if config.SERVER_PORT == "" {
		config.SERVER_PORT = "8080"
	}

	return config, nil
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to db: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.RefreshToken{}); err != nil {
		return nil, fmt.Errorf("cannot migrate tables: %w", err)
	}
	return db, nil
}
