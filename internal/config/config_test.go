package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "MONGO_URI", "MONGO_DATABASE", "LOG_LEVEL", "LOG_PRETTY"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr: got %q", cfg.ListenAddr)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI: got %q", cfg.MongoURI)
	}
	if cfg.Database != "statement_pipeline" {
		t.Errorf("Database: got %q", cfg.Database)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("logging defaults: got %q pretty=%v", cfg.LogLevel, cfg.LogPretty)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("LOG_PRETTY", "true")

	cfg := FromEnv()
	if cfg.ListenAddr != ":9090" || cfg.MongoURI != "mongodb://db:27017" || !cfg.LogPretty {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnvBadBool(t *testing.T) {
	t.Setenv("LOG_PRETTY", "yep")
	if FromEnv().LogPretty {
		t.Error("unparseable bool should fall back to default")
	}
}
