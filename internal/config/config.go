package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"yowbook/internal/book"
	"yowbook/internal/personality"
)

type Config struct {
	ListenAddr       string `yaml:"listen_addr"`
	DataDir          string `yaml:"data_dir"`
	BooksDir         string `yaml:"books_dir"`
	FixedBooksDir    string `yaml:"fixed_books_dir"`
	PersonalitiesDir string `yaml:"personalities_dir"`
	EngineCfgPath    string `yaml:"engine_cfg"`
	DBPath           string `yaml:"db_path"`
	BookCacheSize    int    `yaml:"book_cache_size"`
	AdminToken       string `yaml:"admin_token,omitempty"`
	ConfigPath       string `yaml:"-"`

	// Substitutions replaces the default brand table when set.
	Substitutions []personality.Substitution `yaml:"substitutions"`
	// Overrides replaces the default per-personality overrides when set.
	Overrides map[string]personality.Override `yaml:"overrides"`
}

func FromEnv() Config {
	listenAddr := getenv("YOWBOOK_LISTEN_ADDR", ":8080")
	dataDir := getenv("YOWBOOK_DATA_DIR", "./data")
	booksDir := getenv("YOWBOOK_BOOKS_DIR", filepath.Join(dataDir, "books"))
	fixedBooksDir := getenv("YOWBOOK_FIXED_BOOKS_DIR", filepath.Join(dataDir, "fixed"))
	personalitiesDir := getenv("YOWBOOK_PERSONALITIES_DIR", filepath.Join(dataDir, "personalities"))
	engineCfgPath := getenv("YOWBOOK_ENGINE_CFG", filepath.Join(dataDir, "personalities.cfg"))
	dbPath := getenv("YOWBOOK_DB_PATH", filepath.Join(dataDir, "yowbook.sqlite"))
	configPath := getenv("YOWBOOK_CONFIG", filepath.Join(dataDir, "yowbook.yaml"))
	adminToken := getenv("YOWBOOK_ADMIN_TOKEN", "")

	cacheSize, err := strconv.Atoi(getenv("YOWBOOK_BOOK_CACHE", ""))
	if err != nil || cacheSize <= 0 {
		cacheSize = book.DefaultCacheSize
	}

	return Config{
		ListenAddr:       listenAddr,
		DataDir:          dataDir,
		BooksDir:         booksDir,
		FixedBooksDir:    fixedBooksDir,
		PersonalitiesDir: personalitiesDir,
		EngineCfgPath:    engineCfgPath,
		DBPath:           dbPath,
		BookCacheSize:    cacheSize,
		AdminToken:       adminToken,
		ConfigPath:       configPath,
	}
}

// Load reads the environment and overlays the YAML file at path. An empty
// path means $YOWBOOK_CONFIG; a missing file leaves the environment values.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		path = cfg.ConfigPath
	}
	cfg.ConfigPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BookCacheSize <= 0 {
		cfg.BookCacheSize = book.DefaultCacheSize
	}
	return cfg, nil
}

// Save writes cfg as YAML to its ConfigPath.
func (c Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.ConfigPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) SubstitutionTable() []personality.Substitution {
	if len(c.Substitutions) == 0 {
		return personality.DefaultSubstitutions
	}
	return c.Substitutions
}

func (c Config) OverrideTable() map[string]personality.Override {
	if len(c.Overrides) == 0 {
		return personality.DefaultOverrides
	}
	return c.Overrides
}

func getenv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
