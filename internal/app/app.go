package app

import (
	"net/http"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/phenrril/crontex/internal/adapters/httpserver"
	repo "github.com/phenrril/crontex/internal/adapters/repo/postgres"
	"github.com/phenrril/crontex/internal/adapters/spreadsheet"
	"github.com/phenrril/crontex/internal/config"
	"github.com/phenrril/crontex/internal/domain"
	"github.com/phenrril/crontex/internal/usecase"
	"github.com/phenrril/crontex/internal/validators"
)

type App struct {
	DB        *gorm.DB
	Config    config.Config
	Validate  *validator.Validate
	ProductUC *usecase.ProductUC
	EANUC     *usecase.EANUC
	ImportUC  *usecase.ImportUC
}

// OpenDB connects to Postgres, or to a SQLite file when DB_DRIVER=sqlite.
func OpenDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		db, err := gorm.Open(sqlite.Open(cfg.DBDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return db, nil
	}
	return gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
}

func NewApp(db *gorm.DB, cfg config.Config) (*App, error) {
	prodRepo := repo.NewProductRepo(db)
	v := validators.New()

	app := &App{DB: db, Config: cfg, Validate: v}
	app.ProductUC = &usecase.ProductUC{Products: prodRepo, Validate: v, DefaultRef: cfg.DefaultRef}
	app.EANUC = &usecase.EANUC{Products: prodRepo}
	app.ImportUC = &usecase.ImportUC{Products: prodRepo, Validate: v, ReadSheet: spreadsheet.ReadRows}
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.ProductUC, a.EANUC, a.ImportUC, a.Validate, a.Config.ImportMaxMB)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(&domain.Product{}, &domain.Variant{}); err != nil {
		return err
	}

	if a.DB.Dialector.Name() == "postgres" {
		_ = a.DB.Exec("ALTER TABLE products ALTER COLUMN active SET DEFAULT true").Error
		_ = a.DB.Exec("UPDATE products SET active = true WHERE active IS NULL").Error
		_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_variants_attributes_gin ON variants USING gin (attributes)").Error
		_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_products_grade_meta_gin ON products USING gin (grade_meta)").Error
	}

	if a.Config.IsDev() {
		return seedProducts(a.DB)
	}
	return nil
}

func seedProducts(db *gorm.DB) error {
	var n int64
	if err := db.Model(&domain.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	prods := []domain.Product{
		{ID: uuid.New(), Code: "CAM-001", Name: "Camiseta básica", Unit: "UN", Price: 59.9, Category: "remeras", Reference: "1234", Base: "0456", Active: true},
		{ID: uuid.New(), Code: "BUZ-001", Name: "Buzo con capucha", Unit: "UN", Price: 149.9, Category: "buzos", Reference: "1234", Base: "0457", Active: true},
	}
	for i := range prods {
		if err := db.Create(&prods[i]).Error; err != nil {
			return err
		}
	}
	log.Info().Int("products", len(prods)).Msg("datos de ejemplo cargados")
	return nil
}
