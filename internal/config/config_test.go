package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":8080" || cfg.MaxUploadMB != 64 {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.DefaultCpfCnpjRaiz != "39318225" || !cfg.SplitLotes || cfg.LoteSize != 100 {
		t.Fatalf("pipeline defaults: %+v", cfg)
	}
	if cfg.CSVCharset != "utf-8" {
		t.Fatalf("charset default: %q", cfg.CSVCharset)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("LOTE_SIZE", "50")
	t.Setenv("SPLIT_LOTES", "off")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9999" || cfg.LoteSize != 50 || cfg.SplitLotes {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.MaxUploadMB != 64 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.MaxUploadMB)
	}
}
