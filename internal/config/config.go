package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Slack     SlackConfig     `yaml:"slack"`
	AI        AIConfig        `yaml:"ai"`
	Jira      JiraConfig      `yaml:"jira"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Admin     AdminConfig     `yaml:"admin"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

type SlackConfig struct {
	BotToken      string `yaml:"bot_token"`
	SigningSecret string `yaml:"signing_secret"`
}

// AIConfig selects the generative-text backend used for bug report drafting.
type AIConfig struct {
	Provider       string  `yaml:"provider"` // openai (default), anthropic, gemini, ollama
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type JiraConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type RateLimitConfig struct {
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`
	// Per-IP guard on the public events endpoint.
	EndpointRPS   float64 `yaml:"endpoint_rps"`
	EndpointBurst int     `yaml:"endpoint_burst"`
}

// RedisConfig for the optional async task queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
		cfg.applyDefaults()
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "3000",
			Mode: "debug",
		},
		Mongo: MongoConfig{
			Database: "slackbot",
		},
		AI: AIConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Temperature:    0.3,
			TimeoutSeconds: 30,
		},
		Jira: JiraConfig{
			TimeoutSeconds: 15,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:   100,
			WindowSeconds: 86400,
			EndpointRPS:   10,
			EndpointBurst: 20,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin",
		},
		LogLevel: "info",
	}
}

// applyDefaults fills zero values in a file-loaded config so a partial
// config.yaml does not disable rate limiting or timeouts.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = def.Mongo.Database
	}
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if c.AI.Model == "" {
		c.AI.Model = def.AI.Model
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = def.AI.Temperature
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.Jira.TimeoutSeconds == 0 {
		c.Jira.TimeoutSeconds = def.Jira.TimeoutSeconds
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = def.RateLimit.MaxRequests
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = def.RateLimit.WindowSeconds
	}
	if c.RateLimit.EndpointRPS == 0 {
		c.RateLimit.EndpointRPS = def.RateLimit.EndpointRPS
	}
	if c.RateLimit.EndpointBurst == 0 {
		c.RateLimit.EndpointBurst = def.RateLimit.EndpointBurst
	}
	if c.Admin.Username == "" {
		c.Admin.Username = def.Admin.Username
	}
	if c.Admin.Password == "" {
		c.Admin.Password = def.Admin.Password
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if env := os.Getenv("ENV"); env != "" {
		// prod maps to gin release mode, anything else stays debug
		if env == "prod" || env == "production" {
			c.Server.Mode = "release"
		} else {
			c.Server.Mode = "debug"
		}
	}
	if url := os.Getenv("MONGO_URL"); url != "" {
		c.Mongo.URL = url
	}
	if db := os.Getenv("MONGO_DATABASE"); db != "" {
		c.Mongo.Database = db
	}
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		c.Slack.BotToken = token
	}
	if secret := os.Getenv("SLACK_SIGNING_SECRET"); secret != "" {
		c.Slack.SigningSecret = secret
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if maxStr := os.Getenv("RATE_LIMIT_OPENAI_MAX"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil && max > 0 {
			c.RateLimit.MaxRequests = max
		}
	}
	if winStr := os.Getenv("RATE_LIMIT_OPENAI_WINDOW_SECONDS"); winStr != "" {
		if win, err := strconv.Atoi(winStr); err == nil && win > 0 {
			c.RateLimit.WindowSeconds = win
		}
	}
	if user := os.Getenv("ADMIN_USERNAME"); user != "" {
		c.Admin.Username = user
	}
	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		c.Admin.Password = pass
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

// Validate checks that required settings are present before startup.
// The Mongo URL may be omitted in debug mode, in which case the server
// falls back to the in-memory store.
func (c *Config) Validate() error {
	required := map[string]string{
		"slack.bot_token (SLACK_BOT_TOKEN)":           c.Slack.BotToken,
		"slack.signing_secret (SLACK_SIGNING_SECRET)": c.Slack.SigningSecret,
	}
	if c.Server.Mode == "release" {
		required["mongo.url (MONGO_URL)"] = c.Mongo.URL
	}

	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
