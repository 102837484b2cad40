package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log  LogConfig  `yaml:"log"`
	Data DataConfig `yaml:"data"`
	Auth AuthConfig `yaml:"auth"`
	AI   AIConfig   `yaml:"ai"`
	Sync SyncConfig `yaml:"sync"`
	UI   UIConfig   `yaml:"ui"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // relative paths resolve against the data dir
}

type DataConfig struct {
	Dir  string `yaml:"dir"`
	Path string `yaml:"path"` // sqlite database file
}

type AuthConfig struct {
	Provider      string `yaml:"provider"` // only "email" ships with the local backend
	JWTSecret     string `yaml:"jwt_secret"`
	SessionFile   string `yaml:"session_file"`
	SessionHours  int    `yaml:"session_hours"`
	InitTimeoutMS int    `yaml:"init_timeout_ms"`
}

type AIConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai, azure, anthropic, ollama
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type SyncConfig struct {
	Poll             string  `yaml:"poll"` // cron spec, e.g. "@every 30s"
	RefetchOnSuccess bool    `yaml:"refetch_on_success"`
	ReloadsPerSecond float64 `yaml:"reloads_per_second"`
}

type UIConfig struct {
	Theme string `yaml:"theme"` // void, tokyo-night
}

// InitTimeout is the bound on the startup session check
func (a AuthConfig) InitTimeout() time.Duration {
	return time.Duration(a.InitTimeoutMS) * time.Millisecond
}

// SessionTTL is the lifetime of an issued session token
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionHours) * time.Hour
}

// Timeout is the bound on a single AI request
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// Load reads configPath (or config.yaml in the data dir when empty) and
// applies environment overrides. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		dir := cfg.Data.Dir
		if env := os.Getenv("APOLO_DATA_DIR"); env != "" {
			dir = env
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	cfg.resolvePaths()
	return cfg, nil
}

func DefaultConfig() *Config {
	dir := defaultDataDir()
	return &Config{
		Log: LogConfig{
			Level: "info",
			File:  "apolo.log",
		},
		Data: DataConfig{
			Dir:  dir,
			Path: "apolo.db",
		},
		Auth: AuthConfig{
			Provider:      "email",
			JWTSecret:     "", // empty: a random key is generated next to the session file
			SessionFile:   "session.jwt",
			SessionHours:  24 * 30,
			InitTimeoutMS: 5000,
		},
		AI: AIConfig{
			Provider:  "gemini",
			Model:     "gemini-2.0-flash",
			TimeoutMS: 60000,
		},
		Sync: SyncConfig{
			Poll:             "@every 30s",
			RefetchOnSuccess: true,
			ReloadsPerSecond: 2,
		},
		UI: UIConfig{
			Theme: "void",
		},
	}
}

// defaultDataDir uses the XDG data directory or falls back to the home directory
func defaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "apolo"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "apolo")
}

func (c *Config) overrideFromEnv() {
	if dir := os.Getenv("APOLO_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if path := os.Getenv("APOLO_DB_PATH"); path != "" {
		c.Data.Path = path
	}
	if level := os.Getenv("APOLO_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if secret := os.Getenv("APOLO_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if ms := os.Getenv("APOLO_AUTH_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			c.Auth.InitTimeoutMS = v
		}
	}
	if theme := os.Getenv("APOLO_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if poll := os.Getenv("APOLO_SYNC_POLL"); poll != "" {
		c.Sync.Poll = poll
	}
	if provider := os.Getenv("APOLO_AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if model := os.Getenv("APOLO_AI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if baseURL := os.Getenv("APOLO_AI_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}

	// Provider-native key variables, used only when no key is configured
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case "gemini":
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai", "azure":
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.AI.Provider == "ollama" && c.AI.BaseURL == "" {
		c.AI.BaseURL = os.Getenv("OLLAMA_HOST")
	}
}

func (c *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Data.Dir, p)
	}
	c.Data.Path = abs(c.Data.Path)
	c.Log.File = abs(c.Log.File)
	c.Auth.SessionFile = abs(c.Auth.SessionFile)
}

// EnsureDataDir creates the data directory if needed
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.Data.Dir, 0755)
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = filepath.Join(c.Data.Dir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
