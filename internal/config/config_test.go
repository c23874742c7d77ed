package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Fatalf("api port = %d, want 8080", cfg.API.Port)
	}
	if got := cfg.Database.DSN(); got != "host=localhost port=5432 user=healthhive password=healthhive dbname=healthhive sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
	if got := cfg.Redis.Addr(); got != "localhost:6379" {
		t.Fatalf("redis addr = %q", got)
	}
	if cfg.Auth.AccessTTL().Minutes() != 15 {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL())
	}
	if cfg.Auth.RefreshTTL().Hours() != 720 {
		t.Fatalf("refresh ttl = %v", cfg.Auth.RefreshTTL())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("POSTGRES_DB", "hive_prod")
	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Fatalf("api port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Name != "hive_prod" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Auth.AccessTTL().Minutes() != 5 {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL())
	}
}

func TestLoad_RejectsBadPort(t *testing.T) {
	t.Setenv("API_PORT", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("negative port accepted")
	}
}
