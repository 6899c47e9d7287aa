package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/crontex/internal/config"
	"github.com/phenrril/crontex/internal/domain"
)

func TestSQLiteApp(t *testing.T) {
	cfg := config.Config{
		Port:        "8080",
		LogLevel:    "info",
		DBDriver:    "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "crontex.db"),
		ImportMaxMB: 4,
	}
	db, err := OpenDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	a, err := NewApp(db, cfg)
	require.NoError(t, err)
	require.NoError(t, a.MigrateAndSeed())
	// seeding runs once
	require.NoError(t, a.MigrateAndSeed())

	var n int64
	require.NoError(t, db.Model(&domain.Product{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	rec := httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/CAM-001", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
