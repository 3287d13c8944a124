package config

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	App        AppConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Drive      DriveConfig
	Forecast   ForecastConfig
	Shelf      ShelfConfig
	Compliance ComplianceConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConcurrency int64
	AutoMigrate    bool
}

type AppConfig struct {
	ImportDir string
	ExportDir string
	Workers   int
	BatchSize int
	// DefaultStore labels rows from files without a store column or a
	// store in the file name.
	DefaultStore string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	BudgetTTLSeconds int
	KeyPrefix        string
}

// StorageConfig points at an S3 compatible bucket used to publish exports
// and to pick up movement files.
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	ExportPrefix string
	ImportPrefix string
}

type DriveConfig struct {
	Enabled         bool
	CredentialsJSON string
	FolderPath      string
	PollSeconds     int
}

// ForecastConfig holds the defaults of a budget run; requests may override
// the weights and the conservatism factor.
type ForecastConfig struct {
	WeightAverage    float64
	WeightTrend      float64
	WeightRotation   float64
	Conservatism     float64
	MinConservatism  float64
	MaxConservatism  float64
	BaselineRotation float64
	HistoryMonths    int
}

type ShelfConfig struct {
	TopRank             int
	TopShare            float64
	HighRevenue         float64
	ExcellentMargin     float64
	ExcellentRevenue    float64
	SolidRevenue        float64
	SolidMargin         float64
	DeadStockReceived   float64
	DeadStockSold       float64
	DeadStockWindowDays int
	StaleDays           int
	StaleUnits          float64
	StaleRevenue        float64
	MinimalRevenue      float64
	LowRevenue          float64
	LowRotationRatio    float64
	WeakRevenue         float64
	WeakMargin          float64
	WeakUnits           float64
}

type ComplianceConfig struct {
	LowCompliance     float64
	HighCompliance    float64
	LowAvailability   float64
	PriceDeviation    float64
	TrailingPriceDays int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()

		setDefaults()
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_IMPORT_DIR"))
		ensureDir(viper.GetString("APP_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				URL:            viper.GetString("DATABASE_URL"),
				Host:           viper.GetString("DB_HOST"),
				Port:           viper.GetString("DB_PORT"),
				User:           viper.GetString("DB_USER"),
				Password:       viper.GetString("DB_PASSWORD"),
				DBName:         viper.GetString("DB_NAME"),
				SSLMode:        viper.GetString("DB_SSLMODE"),
				MaxConcurrency: viper.GetInt64("DB_MAX_CONCURRENCY"),
				AutoMigrate:    viper.GetBool("DB_AUTO_MIGRATE"),
			},
			App: AppConfig{
				ImportDir:    viper.GetString("APP_IMPORT_DIR"),
				ExportDir:    viper.GetString("APP_EXPORT_DIR"),
				Workers:      viper.GetInt("APP_INGEST_WORKERS"),
				BatchSize:    viper.GetInt("APP_INGEST_BATCH_SIZE"),
				DefaultStore: viper.GetString("APP_DEFAULT_STORE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				BudgetTTLSeconds: viper.GetInt("CACHE_BUDGET_TTL_SECONDS"),
				KeyPrefix:        viper.GetString("CACHE_KEY_PREFIX"),
			},
			Storage: StorageConfig{
				Enabled:      viper.GetBool("STORAGE_ENABLED"),
				Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:       viper.GetString("STORAGE_BUCKET"),
				UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
				ExportPrefix: viper.GetString("STORAGE_EXPORT_PREFIX"),
				ImportPrefix: viper.GetString("STORAGE_IMPORT_PREFIX"),
			},
			Drive: DriveConfig{
				Enabled:         viper.GetBool("DRIVE_ENABLED"),
				CredentialsJSON: viper.GetString("GOOGLE_CREDENTIALS_JSON"),
				FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
				PollSeconds:     viper.GetInt("DRIVE_POLL_SECONDS"),
			},
			Forecast: ForecastConfig{
				WeightAverage:    viper.GetFloat64("FORECAST_WEIGHT_AVERAGE"),
				WeightTrend:      viper.GetFloat64("FORECAST_WEIGHT_TREND"),
				WeightRotation:   viper.GetFloat64("FORECAST_WEIGHT_ROTATION"),
				Conservatism:     viper.GetFloat64("FORECAST_CONSERVATISM"),
				MinConservatism:  viper.GetFloat64("FORECAST_MIN_CONSERVATISM"),
				MaxConservatism:  viper.GetFloat64("FORECAST_MAX_CONSERVATISM"),
				BaselineRotation: viper.GetFloat64("FORECAST_BASELINE_ROTATION"),
				HistoryMonths:    viper.GetInt("FORECAST_HISTORY_MONTHS"),
			},
			Shelf: ShelfConfig{
				TopRank:             viper.GetInt("SHELF_TOP_RANK"),
				TopShare:            viper.GetFloat64("SHELF_TOP_SHARE"),
				HighRevenue:         viper.GetFloat64("SHELF_HIGH_REVENUE"),
				ExcellentMargin:     viper.GetFloat64("SHELF_EXCELLENT_MARGIN"),
				ExcellentRevenue:    viper.GetFloat64("SHELF_EXCELLENT_REVENUE"),
				SolidRevenue:        viper.GetFloat64("SHELF_SOLID_REVENUE"),
				SolidMargin:         viper.GetFloat64("SHELF_SOLID_MARGIN"),
				DeadStockReceived:   viper.GetFloat64("SHELF_DEAD_STOCK_RECEIVED"),
				DeadStockSold:       viper.GetFloat64("SHELF_DEAD_STOCK_SOLD"),
				DeadStockWindowDays: viper.GetInt("SHELF_DEAD_STOCK_WINDOW_DAYS"),
				StaleDays:           viper.GetInt("SHELF_STALE_DAYS"),
				StaleUnits:          viper.GetFloat64("SHELF_STALE_UNITS"),
				StaleRevenue:        viper.GetFloat64("SHELF_STALE_REVENUE"),
				MinimalRevenue:      viper.GetFloat64("SHELF_MINIMAL_REVENUE"),
				LowRevenue:          viper.GetFloat64("SHELF_LOW_REVENUE"),
				LowRotationRatio:    viper.GetFloat64("SHELF_LOW_ROTATION_RATIO"),
				WeakRevenue:         viper.GetFloat64("SHELF_WEAK_REVENUE"),
				WeakMargin:          viper.GetFloat64("SHELF_WEAK_MARGIN"),
				WeakUnits:           viper.GetFloat64("SHELF_WEAK_UNITS"),
			},
			Compliance: ComplianceConfig{
				LowCompliance:     viper.GetFloat64("COMPLIANCE_LOW_PCT"),
				HighCompliance:    viper.GetFloat64("COMPLIANCE_HIGH_PCT"),
				LowAvailability:   viper.GetFloat64("COMPLIANCE_LOW_AVAILABILITY_PCT"),
				PriceDeviation:    viper.GetFloat64("COMPLIANCE_PRICE_DEVIATION_PCT"),
				TrailingPriceDays: viper.GetInt("COMPLIANCE_TRAILING_PRICE_DAYS"),
			},
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "budget")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONCURRENCY", 8)
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("APP_IMPORT_DIR", "./data/import")
	viper.SetDefault("APP_EXPORT_DIR", "./data/export")
	viper.SetDefault("APP_INGEST_WORKERS", 4)
	viper.SetDefault("APP_INGEST_BATCH_SIZE", 5000)
	viper.SetDefault("APP_DEFAULT_STORE", "")

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_BUDGET_TTL_SECONDS", 300)
	viper.SetDefault("CACHE_KEY_PREFIX", "budget-engine")

	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "budget")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("STORAGE_EXPORT_PREFIX", "exports")
	viper.SetDefault("STORAGE_IMPORT_PREFIX", "movements")

	viper.SetDefault("DRIVE_ENABLED", false)
	viper.SetDefault("DRIVE_FOLDER_PATH", "")
	viper.SetDefault("DRIVE_POLL_SECONDS", 300)

	viper.SetDefault("FORECAST_WEIGHT_AVERAGE", 0.5)
	viper.SetDefault("FORECAST_WEIGHT_TREND", 0.3)
	viper.SetDefault("FORECAST_WEIGHT_ROTATION", 0.2)
	viper.SetDefault("FORECAST_CONSERVATISM", 0.95)
	viper.SetDefault("FORECAST_MIN_CONSERVATISM", 0.8)
	viper.SetDefault("FORECAST_MAX_CONSERVATISM", 1.2)
	viper.SetDefault("FORECAST_BASELINE_ROTATION", 0.65)
	viper.SetDefault("FORECAST_HISTORY_MONTHS", 12)

	viper.SetDefault("SHELF_TOP_RANK", 5)
	viper.SetDefault("SHELF_TOP_SHARE", 0.2)
	viper.SetDefault("SHELF_HIGH_REVENUE", 100000)
	viper.SetDefault("SHELF_EXCELLENT_MARGIN", 30)
	viper.SetDefault("SHELF_EXCELLENT_REVENUE", 30000)
	viper.SetDefault("SHELF_SOLID_REVENUE", 50000)
	viper.SetDefault("SHELF_SOLID_MARGIN", 25)
	viper.SetDefault("SHELF_DEAD_STOCK_RECEIVED", 30)
	viper.SetDefault("SHELF_DEAD_STOCK_SOLD", 5)
	viper.SetDefault("SHELF_DEAD_STOCK_WINDOW_DAYS", 60)
	viper.SetDefault("SHELF_STALE_DAYS", 45)
	viper.SetDefault("SHELF_STALE_UNITS", 10)
	viper.SetDefault("SHELF_STALE_REVENUE", 10000)
	viper.SetDefault("SHELF_MINIMAL_REVENUE", 5000)
	viper.SetDefault("SHELF_LOW_REVENUE", 20000)
	viper.SetDefault("SHELF_LOW_ROTATION_RATIO", 0.3)
	viper.SetDefault("SHELF_WEAK_REVENUE", 15000)
	viper.SetDefault("SHELF_WEAK_MARGIN", 10)
	viper.SetDefault("SHELF_WEAK_UNITS", 30)

	viper.SetDefault("COMPLIANCE_LOW_PCT", 80)
	viper.SetDefault("COMPLIANCE_HIGH_PCT", 110)
	viper.SetDefault("COMPLIANCE_LOW_AVAILABILITY_PCT", 60)
	viper.SetDefault("COMPLIANCE_PRICE_DEVIATION_PCT", 15)
	viper.SetDefault("COMPLIANCE_TRAILING_PRICE_DAYS", 90)
}

// DSN returns DATABASE_URL when set, otherwise a key/value connection string
// built from the individual settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
