// database/bootstrap.go
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Pushparaj13811/plant-project-v/config"
	"github.com/Pushparaj13811/plant-project-v/entities"
)

// Open connects to the configured driver and migrates the schema.
func Open(cfg config.AppConfig, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "", "sqlite":
		return OpenSQLite(cfg.DBPath, log)
	case "postgres":
		return OpenPostgres(cfg.DatabaseURL, log)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// run before AutoMigrate so the rebuilt table gets the current schema
	migrated, err := migrateLegacyPlantRecords(db)
	if err != nil {
		return nil, fmt.Errorf("migrate legacy plant_records: %w", err)
	}
	if migrated {
		log.Info("rebuilt legacy plant_records without inline derived columns")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func OpenPostgres(databaseURL string, log *zap.Logger) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("postgres connected")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.Plant{},
		&entities.PlantRecord{},
		&entities.CalculatedRecord{},
		&entities.Formula{},
		&entities.FormulaVariable{},
		&entities.CustomColumn{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// legacyDerivedColumns were stored inline on plant_records before calculated_records existed.
var legacyDerivedColumns = []string{
	"dm", "rate_on_dm", "oil_value", "net_wo_oil_fiber",
	"starch_per_point", "starch_value", "grain", "doc",
}

// migrateLegacyPlantRecords rebuilds plant_records if it still carries derived columns.
// The derived values are dropped; the startup backfill recomputes them.
func migrateLegacyPlantRecords(db *gorm.DB) (bool, error) {
	// does table exist?
	var tbl string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='table' AND name='plant_records'`).Scan(&tbl).Error; err != nil {
		return false, fmt.Errorf("check table exist: %w", err)
	}
	if tbl == "" {
		// fresh DB, nothing to do
		return false, nil
	}

	type colInfo struct {
		Cid       int
		Name      string
		Type      string
		NotNull   int
		DfltValue sql.NullString
		Pk        int
	}
	var cols []colInfo
	if err := db.Raw(`PRAGMA table_info(plant_records)`).Scan(&cols).Error; err != nil {
		return false, fmt.Errorf("table_info: %w", err)
	}
	oldCols := map[string]bool{}
	for _, c := range cols {
		oldCols[strings.ToLower(c.Name)] = true
	}
	legacy := false
	for _, c := range legacyDerivedColumns {
		if oldCols[c] {
			legacy = true
			break
		}
	}
	if !legacy {
		return false, nil
	}

	var indexes []string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='plant_records' AND sql IS NOT NULL`).Scan(&indexes).Error; err != nil {
		return false, fmt.Errorf("list indexes: %w", err)
	}

	kept := []string{
		"id", "plant_id", "date", "code", "product", "truck_no", "bill_no", "party_name", "notes",
		"rate", "mv", "oil", "fiber", "starch", "maize_rate", "created_at", "updated_at",
	}
	sel := make([]string, len(kept))
	for i, name := range kept {
		if oldCols[name] {
			sel[i] = name
		} else {
			sel[i] = "NULL AS " + name
		}
	}
	copySQL := fmt.Sprintf(`INSERT INTO plant_records (%s) SELECT %s FROM plant_records_legacy`,
		strings.Join(kept, ", "), strings.Join(sel, ", "))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`PRAGMA foreign_keys=OFF`).Error; err != nil {
			return err
		}
		// index names are global in SQLite and would clash with the new table's
		for _, idx := range indexes {
			if err := tx.Exec(fmt.Sprintf(`DROP INDEX IF EXISTS %q`, idx)).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`ALTER TABLE plant_records RENAME TO plant_records_legacy`).Error; err != nil {
			return err
		}
		if err := tx.Migrator().CreateTable(&entities.PlantRecord{}); err != nil {
			return err
		}
		if err := tx.Exec(copySQL).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DROP TABLE plant_records_legacy`).Error; err != nil {
			return err
		}
		return tx.Exec(`PRAGMA foreign_keys=ON`).Error
	})
	return err == nil, err
}
