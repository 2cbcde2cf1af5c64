// internal/infra/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	orderdom "storefront/internal/domain/order"
)

// Order backends.
const (
	OrderBackendFirestore = "firestore"
	OrderBackendPostgres  = "postgres"
)

// Config holds the storefront settings.
//
// Values come from an optional YAML file (STOREFRONT_CONFIG) and are then
// overridden by environment variables.
type Config struct {
	GCPCreds                 string `yaml:"gcpCredentials"`
	FirestoreProjectID       string `yaml:"firestoreProjectId"`
	FirestoreCredentialsFile string `yaml:"firestoreCredentialsFile"`
	FirebaseProjectID        string `yaml:"firebaseProjectId"`

	Port        string `yaml:"port"`
	AllowOrigin string `yaml:"allowOrigin"`

	LocalDBPath       string `yaml:"localDbPath"`
	ClearCartOnLogout bool   `yaml:"clearCartOnLogout"`

	ShippingFee float64           `yaml:"shippingFee"`
	Coupons     []orderdom.Coupon `yaml:"coupons"`

	CatalogBaseURL string `yaml:"catalogBaseUrl"`
	ReceiptBucket  string `yaml:"receiptBucket"`

	SendGridAPIKey     string `yaml:"sendgridApiKey"`
	SendGridAPIKeyName string `yaml:"sendgridApiKeySecret"`
	SendGridFrom       string `yaml:"sendgridFrom"`
	StoreName          string `yaml:"storeName"`

	OrderBackend string `yaml:"orderBackend"`
	DatabaseURL  string `yaml:"databaseUrl"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	Offline bool `yaml:"offline"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		FirestoreProjectID: "storefront-development",
		Port:               "8080",
		AllowOrigin:        "*",
		LocalDBPath:        "storefront.db",
		ClearCartOnLogout:  true,
		ShippingFee:        orderdom.DefaultShippingFee,
		CatalogBaseURL:     "https://fakestoreapi.com",
		StoreName:          "Storefront",
		OrderBackend:       OrderBackendFirestore,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load reads STOREFRONT_CONFIG (if set) and the environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("STOREFRONT_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	project := getenvDefault("GCP_PROJECT_ID", c.FirestoreProjectID)

	c.GCPCreds = getenvDefault("GOOGLE_APPLICATION_CREDENTIALS", c.GCPCreds)
	c.FirestoreProjectID = getenvDefault("FIRESTORE_PROJECT_ID", project)
	c.FirestoreCredentialsFile = getenvDefault("FIRESTORE_CREDENTIALS_FILE", c.FirestoreCredentialsFile)
	c.FirebaseProjectID = getenvDefault("FIREBASE_PROJECT_ID", firstNonEmpty(c.FirebaseProjectID, c.FirestoreProjectID))

	c.Port = getenvDefault("PORT", c.Port)
	c.AllowOrigin = getenvDefault("ALLOW_ORIGIN", c.AllowOrigin)

	c.LocalDBPath = getenvDefault("LOCAL_DB_PATH", c.LocalDBPath)
	c.CatalogBaseURL = getenvDefault("CATALOG_BASE_URL", c.CatalogBaseURL)
	c.ReceiptBucket = getenvDefault("RECEIPT_BUCKET", c.ReceiptBucket)

	c.SendGridAPIKey = getenvDefault("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.SendGridAPIKeyName = getenvDefault("SENDGRID_API_KEY_SECRET", c.SendGridAPIKeyName)
	c.SendGridFrom = getenvDefault("SENDGRID_FROM", c.SendGridFrom)
	c.StoreName = getenvDefault("STORE_NAME", c.StoreName)

	c.OrderBackend = strings.ToLower(getenvDefault("ORDER_BACKEND", c.OrderBackend))
	c.DatabaseURL = getenvDefault("DATABASE_URL", c.DatabaseURL)

	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenvDefault("LOG_FORMAT", c.LogFormat)

	var err error
	if c.ClearCartOnLogout, err = getenvBool("CLEAR_CART_ON_LOGOUT", c.ClearCartOnLogout); err != nil {
		return err
	}
	if c.Offline, err = getenvBool("STOREFRONT_OFFLINE", c.Offline); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("SHIPPING_FEE")); v != "" {
		fee, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return fmt.Errorf("config: SHIPPING_FEE=%q: %w", v, perr)
		}
		c.ShippingFee = fee
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.OrderBackend {
	case OrderBackendFirestore:
	case OrderBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" && !c.Offline {
			return fmt.Errorf("config: ORDER_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown order backend %q", c.OrderBackend)
	}
	for _, cp := range c.Coupons {
		if cp.Kind != orderdom.CouponPercent && cp.Kind != orderdom.CouponFixed {
			return fmt.Errorf("config: coupon %q has unknown kind %q", cp.Code, cp.Kind)
		}
	}
	return nil
}

// CouponBook builds the checkout coupon table.
func (c *Config) CouponBook() orderdom.CouponBook {
	return orderdom.NewCouponBook(c.Coupons)
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return b, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
