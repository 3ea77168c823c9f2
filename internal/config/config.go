package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Search  SearchConfig  `mapstructure:"search"`
	LLM     LLMConfig     `mapstructure:"llm"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig represents the web/image search provider (Serper) configuration
type SearchConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Timeout  int    `mapstructure:"timeout"`   // Seconds per request
	Num      int    `mapstructure:"num"`       // Organic results requested
	ImageNum int    `mapstructure:"image_num"` // Images requested
	GL       string `mapstructure:"gl"`        // Region
	HL       string `mapstructure:"hl"`        // Language
}

// LLMConfig represents the language-model provider (Gemini) configuration
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // Seconds per request
}

// RequestTimeout returns the per-call timeout of the search provider
func (c SearchConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RequestTimeout returns the per-call timeout of the language-model provider
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Warnings lists configuration problems that do not prevent startup.
// Missing keys surface later as Unauthorized upstream errors.
func (c *Config) Warnings() []string {
	var warnings []string
	if strings.TrimSpace(c.Search.APIKey) == "" {
		warnings = append(warnings, "search.api_key is not set (SERPER_API_KEY)")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		warnings = append(warnings, "llm.api_key is not set (GEMINI_API_KEY)")
	}
	return warnings
}

func Load(cfgFile string) *Config {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// AISEARCH_SEARCH_API_KEY -> search.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AISEARCH")
	v.AutomaticEnv()

	// Provider-native variable names
	_ = v.BindEnv("search.api_key", "AISEARCH_SEARCH_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("llm.api_key", "AISEARCH_LLM_API_KEY", "GEMINI_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is ok, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isMissingFile(err) {
			panic("Error reading config file: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("Error unmarshaling config: " + err.Error())
	}

	return &cfg
}

// isMissingFile reports a missing explicit config file, which viper does not
// wrap in ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("search.base_url", "https://google.serper.dev")
	v.SetDefault("search.timeout", 10)
	v.SetDefault("search.num", 8)
	v.SetDefault("search.image_num", 8)
	v.SetDefault("search.gl", "rw")
	v.SetDefault("search.hl", "en")

	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1")
	v.SetDefault("llm.model", "gemini-pro")
	v.SetDefault("llm.timeout", 10)
}
