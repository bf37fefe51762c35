package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/models"
)

// Connect opens the database named by the DSN (postgres:// URL or sqlite file),
// runs migrations and seeds the cost configuration when absent.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	// TranslateError lets callers match gorm.ErrDuplicatedKey across drivers.
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var conn *gorm.DB
	var err error
	if isPostgres(dsn) {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	fmt.Println("[DB] Using DSN:", maskDSN(dsn))

	// MIGRATIONS=1 runs sql migrations via golang-migrate (postgres only);
	// otherwise AutoMigrate keeps the dev loop simple.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); isPostgres(dsn) && (v == "1" || v == "true" || v == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(conn); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"clients", "proposals", "proposal_versions"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if err := SeedCostConfiguration(conn, cfg.Pricing); err != nil {
		return nil, err
	}
	return conn, nil
}

// AutoMigrate creates or updates every table of the schema.
func AutoMigrate(conn *gorm.DB) error {
	toMigrate := []interface{}{
		&models.Client{}, &models.Proposal{}, &models.ProposalVersion{},
		&models.ClientResponse{}, &models.Notification{}, &models.GeneratedDocument{},
		&models.IndirectCostRecord{}, &models.CostConfiguration{},
	}
	for _, m := range toMigrate {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// SeedCostConfiguration inserts the singleton pricing policy row when the
// table is empty. Idempotent.
func SeedCostConfiguration(conn *gorm.DB, p config.Pricing) error {
	var count int64
	if err := conn.Model(&models.CostConfiguration{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	row := models.CostConfiguration{
		ProfitMin:     p.ProfitMin,
		ProfitMax:     p.ProfitMax,
		ValidityHours: p.ValidityHours,
		Terms:         p.Terms,
		PaymentTerms:  p.PaymentTerms,
		UpdatedBy:     "Sistema",
	}
	return conn.Create(&row).Error
}

// LoadPricing reads the persisted cost configuration into the injected config
// value. Called once at startup; request paths never touch the row.
func LoadPricing(conn *gorm.DB, fallback config.Pricing) (config.Pricing, error) {
	var row models.CostConfiguration
	err := conn.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return config.Pricing{
		ProfitMin:     row.ProfitMin,
		ProfitMax:     row.ProfitMax,
		ValidityHours: row.ValidityHours,
		Terms:         row.Terms,
		PaymentTerms:  row.PaymentTerms,
	}, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

var passwordRegex = regexp.MustCompile(`(password=|:)([^@\s:/]+)@`)

func maskDSN(dsn string) string {
	return passwordRegex.ReplaceAllString(dsn, `${1}***@`)
}
