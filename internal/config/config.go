package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	ListenAddr  string
	MaxUploadMB int

	DefaultCpfCnpjRaiz string
	SplitLotes         bool
	LoteSize           int
	CSVCharset         string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "bytebook.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 64),

		DefaultCpfCnpjRaiz: getEnv("CNPJ_RAIZ_DEFAULT", "39318225"),
		SplitLotes:         getEnvBool("SPLIT_LOTES", true),
		LoteSize:           getEnvInt("LOTE_SIZE", 100),
		CSVCharset:         getEnv("CSV_CHARSET", "utf-8"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
