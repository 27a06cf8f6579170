package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	// UploadDir — корень хранилища, все пути запросов считаются относительно него.
	UploadDir string `yaml:"upload_dir" json:"upload_dir"`
	// BaseURL — внешний адрес сервиса для ссылок на готовые архивы.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// ArchiveDir — подкаталог UploadDir для сгенерированных архивов.
	ArchiveDir       string `yaml:"archive_dir" json:"archive_dir"`
	CompressionLevel int    `yaml:"compression_level" json:"compression_level"`
	// ArchiveTTLHours — возраст архива, после которого его удаляет уборщик; 0 отключает уборку.
	ArchiveTTLHours    int    `yaml:"archive_ttl_hours" json:"archive_ttl_hours"`
	JanitorIntervalMin int    `yaml:"janitor_interval_min" json:"janitor_interval_min"`
	LogLevel           string `yaml:"log_level" json:"log_level"`
	LogFormat          string `yaml:"log_format" json:"log_format"`
}

// Default возвращает настройки для локального запуска.
func Default() *Config {
	return &Config{
		ListenAddr:         ":9005",
		UploadDir:          "uploads",
		BaseURL:            "http://localhost:9005",
		ArchiveDir:         "compressed",
		CompressionLevel:   6,
		ArchiveTTLHours:    0,
		JanitorIntervalMin: 30,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Пустой path означает CONFIG_PATH или ./config.yaml; отсутствие такого файла не ошибка.
// Явно переданный path обязан существовать.
func Load(path string) (*Config, error) {
	c := Default()

	required := path != ""
	if !required {
		path = getenv("CONFIG_PATH", defaultConfigPath)
		required = os.Getenv("CONFIG_PATH") != ""
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		c.ArchiveDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"COMPRESSION_LEVEL", &c.CompressionLevel},
		{"ARCHIVE_TTL_HOURS", &c.ArchiveTTLHours},
		{"JANITOR_INTERVAL_MIN", &c.JanitorIntervalMin},
	}
	for _, it := range ints {
		v := os.Getenv(it.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", it.key, err)
		}
		*it.dst = n
	}

	return nil
}

// Validate проверяет обязательные поля и нормализует BaseURL.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" {
		return fmt.Errorf("upload_dir is not configured")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	// Архивы отдаются тем же маршрутом /api/files/{subDirectory}/{fileName},
	// поэтому каталог архивов состоит ровно из одного сегмента.
	archiveDir := strings.Trim(strings.TrimSpace(c.ArchiveDir), "/")
	if archiveDir == "" || archiveDir == "." || archiveDir == ".." || strings.ContainsAny(archiveDir, `/\`) {
		return fmt.Errorf("archive_dir must be a single directory name, got %q", c.ArchiveDir)
	}
	c.ArchiveDir = archiveDir

	if c.CompressionLevel < 1 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be within 1..9, got %d", c.CompressionLevel)
	}
	if c.ArchiveTTLHours < 0 || c.JanitorIntervalMin < 0 {
		return fmt.Errorf("archive_ttl_hours and janitor_interval_min must not be negative")
	}

	return nil
}

// ArchiveTTL возвращает срок жизни архива.
func (c *Config) ArchiveTTL() time.Duration {
	return time.Duration(c.ArchiveTTLHours) * time.Hour
}

// JanitorInterval возвращает период запуска уборщика.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalMin) * time.Minute
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
