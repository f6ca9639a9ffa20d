package infra

import (
	"fmt"

	"botica/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the schema
// up to date: AutoMigrate for tables and columns, then the idempotent SQL patches
// that GORM cannot express (partial indexes).
func NewDatabase(dsn string, maxOpenConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns / 2)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies the schema patches.
// Safe to call repeatedly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.PriceHistory{},
		&model.Customer{},
		&model.Sale{},
		&model.SaleItem{},
		&model.SaleSequence{},
		&model.StockMovement{},
		&model.Alert{},
		&model.Location{},
		&model.ProductLocation{},
		&model.Prescription{},
		&model.PrescriptionItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// produce. Each statement uses IF NOT EXISTS so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one open alert per product and type
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_product_type
		    ON alerts (product_id, alert_type)
		    WHERE is_resolved = false`,
		// active alert listing
		`CREATE INDEX IF NOT EXISTS idx_alerts_unresolved_created
		    ON alerts (created_at DESC)
		    WHERE is_resolved = false`,
		// product search by name / sku / description
		`CREATE INDEX IF NOT EXISTS idx_products_lower_name
		    ON products (lower(name))`,
		// sale number prefix lookups (VTA-YYYYMM-%)
		`CREATE INDEX IF NOT EXISTS idx_sales_sale_number_prefix
		    ON sales (sale_number varchar_pattern_ops)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
