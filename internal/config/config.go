package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type StorageBackend string

const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendFile   StorageBackend = "file"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Report  ReportConfig  `toml:"report"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type StorageConfig struct {
	Backend StorageBackend `toml:"backend"`
	// Path is the sqlite database file; DataDir holds the JSON documents of
	// the file backend.
	Path    string `toml:"path"`
	DataDir string `toml:"data_dir"`
}

type ReportConfig struct {
	Weeks   int    `toml:"weeks"`
	Profile string `toml:"profile"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func Default(dbPath, dataDir string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: StorageBackendSQLite,
			Path:    dbPath,
			DataDir: dataDir,
		},
		Report: ReportConfig{
			Weeks:   12,
			Profile: "",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     "",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for the sqlite backend")
		}
	case StorageBackendFile:
		if strings.TrimSpace(c.Storage.DataDir) == "" {
			return errors.New("storage.data_dir is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}

	if c.Report.Weeks < 1 {
		return errors.New("report.weeks must be >= 1")
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	apiEndpoint := "/" + strings.Trim(strings.TrimSpace(c.Server.APIEndpoint), "/")
	mcpEndpoint := "/" + strings.Trim(strings.TrimSpace(c.Server.MCPEndpoint), "/")
	if apiEndpoint == mcpEndpoint {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
