package postgres

import (
	"testing"
	"time"

	"github.com/ogurasousui/codex-daily-report/internal/platform/config"
)

func baseDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "localhost",
		Port:     15432,
		User:     "user",
		Password: "p@ss",
		Name:     "daily_report",
		SSLMode:  "disable",
	}
}

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	dbCfg := baseDatabaseConfig()
	dbCfg.ApplicationName = "daily-report-test"
	dbCfg.MaxOpenConns = 20
	dbCfg.MaxIdleConns = 5
	dbCfg.ConnMaxLifetime = 30 * time.Minute
	dbCfg.ConnMaxIdleTime = 10 * time.Minute

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 || poolCfg.MinConns != 5 {
		t.Errorf("unexpected pool size: max=%d min=%d", poolCfg.MaxConns, poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != 30*time.Minute || poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected lifetimes: %v / %v", poolCfg.MaxConnLifetime, poolCfg.MaxConnIdleTime)
	}
	if poolCfg.ConnConfig.Password != "p@ss" {
		t.Errorf("expected escaped password to round-trip, got %s", poolCfg.ConnConfig.Password)
	}

	params := poolCfg.ConnConfig.RuntimeParams
	if params["application_name"] != "daily-report-test" {
		t.Errorf("unexpected application_name: %s", params["application_name"])
	}
	if params["timezone"] != "UTC" {
		t.Errorf("expected timezone UTC, got %q", params["timezone"])
	}
}

func TestBuildPoolConfig_MinConnsCappedByMax(t *testing.T) {
	t.Parallel()

	dbCfg := baseDatabaseConfig()
	dbCfg.MaxOpenConns = 4
	dbCfg.MaxIdleConns = 10

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if poolCfg.MinConns != 4 {
		t.Errorf("expected MinConns capped to 4, got %d", poolCfg.MinConns)
	}
}
