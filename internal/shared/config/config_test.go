package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Server.Env)
	}
	if cfg.Server.RequireAuth {
		t.Error("expected RequireAuth to default to false outside production")
	}
}

func TestLoadRequiresAuthInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Server.RequireAuth {
		t.Error("expected RequireAuth to default to true when ENV=production")
	}
}

func TestLoadRequireAuthEnvOverridesEnvDefault(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("REQUIRE_AUTH", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.RequireAuth {
		t.Error("expected explicit REQUIRE_AUTH=false to override the production default")
	}
}

func TestStoreConfigDSN(t *testing.T) {
	store := StoreConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	dsn := store.DSN()
	want := "host=db port=5432 user=u password=p dbname=d sslmode=disable"
	if dsn != want {
		t.Errorf("expected %q, got %q", want, dsn)
	}
}
