package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/models"
	"github.com/framekart/storefront/internal/pricing"
)

type Config struct {
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	JWT_SECRET     string
	REFRESH_SECRET string
	KAFKA_ADDRESS  string
	LOG_LEVEL      string

	TAX_RATE                string
	FREE_SHIPPING_THRESHOLD string
	FLAT_SHIPPING_FEE       string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:        os.Getenv("DB_HOST"),
		DB_PORT:        os.Getenv("DB_PORT"),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        os.Getenv("DB_NAME"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		LOG_LEVEL:      os.Getenv("LOG_LEVEL"),

		TAX_RATE:                os.Getenv("TAX_RATE"),
		FREE_SHIPPING_THRESHOLD: os.Getenv("FREE_SHIPPING_THRESHOLD"),
		FLAT_SHIPPING_FEE:       os.Getenv("FLAT_SHIPPING_FEE"),
	}

	return config, nil
}

// PricingPolicy starts from the defaults and applies any env overrides.
// A malformed override is logged and ignored rather than silently pricing
// orders with a zero rate.
func (c *Config) PricingPolicy() pricing.Policy {
	policy := pricing.DefaultPolicy()

	if c.TAX_RATE != "" {
		if v, err := decimal.NewFromString(c.TAX_RATE); err == nil {
			policy.TaxRate = v
		} else {
			log.Printf("invalid TAX_RATE %q: %v", c.TAX_RATE, err)
		}
	}
	if c.FREE_SHIPPING_THRESHOLD != "" {
		if v, err := decimal.NewFromString(c.FREE_SHIPPING_THRESHOLD); err == nil {
			policy.FreeShippingThreshold = v
		} else {
			log.Printf("invalid FREE_SHIPPING_THRESHOLD %q: %v", c.FREE_SHIPPING_THRESHOLD, err)
		}
	}
	if c.FLAT_SHIPPING_FEE != "" {
		if v, err := decimal.NewFromString(c.FLAT_SHIPPING_FEE); err == nil {
			policy.FlatShippingFee = v
		} else {
			log.Printf("invalid FLAT_SHIPPING_FEE %q: %v", c.FLAT_SHIPPING_FEE, err)
		}
	}

	return policy
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
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.Collection{},
		&models.ProductCollection{},
		&models.Bundle{},
		&models.BundleProduct{},
		&models.FrameOption{},
		&models.User{},
		&models.Profile{},
		&models.UserRole{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.WishlistItem{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
}
