package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace prefix for all Courtlive environment variables.
const EnvPrefix = "COURTLIVE_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr            string  `yaml:"listen_addr"`
	DBPath                string  `yaml:"db_path"`
	RecognizerURL         string  `yaml:"recognizer_url"`
	RecognizerTokenURL    string  `yaml:"recognizer_token_url"`
	JudgeModel            string  `yaml:"judge_model"`
	Language              string  `yaml:"language"`
	SpeechRate            float64 `yaml:"speech_rate"`
	GDriveFolderID        string  `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string  `yaml:"google_credentials_file"`

	// Secrets — env vars only, never serialized to YAML.
	RecognizerAPIKey string `yaml:"-"`
	OpenAIAPIKey     string `yaml:"-"`
	AnthropicAPIKey  string `yaml:"-"`
	GeminiAPIKey     string `yaml:"-"`
	DeepgramAPIKey   string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:            "127.0.0.1:8080",
		DBPath:                "data/courtlive.db",
		JudgeModel:            "openai/gpt-4o-mini",
		Language:              "en",
		SpeechRate:            1.0,
		GoogleCredentialsFile: "./service-account.json",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "RECOGNIZER_URL"); v != "" {
		cfg.RecognizerURL = v
	}
	if v := os.Getenv(EnvPrefix + "RECOGNIZER_TOKEN_URL"); v != "" {
		cfg.RecognizerTokenURL = v
	}
	if v := os.Getenv(EnvPrefix + "JUDGE_MODEL"); v != "" {
		cfg.JudgeModel = v
	}
	if v := os.Getenv(EnvPrefix + "LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.RecognizerAPIKey = os.Getenv(EnvPrefix + "RECOGNIZER_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	if cfg.RecognizerAPIKey == "" {
		warnings = append(warnings, "Recognizer API key not configured — live transcription is disabled. Set "+EnvPrefix+"RECOGNIZER_API_KEY.")
	}
	if cfg.OpenAIAPIKey == "" && cfg.AnthropicAPIKey == "" && cfg.GeminiAPIKey == "" {
		warnings = append(warnings, "No reasoning backend key configured — the AI judge is disabled. Set "+EnvPrefix+"OPENAI_API_KEY, "+EnvPrefix+"ANTHROPIC_API_KEY or "+EnvPrefix+"GEMINI_API_KEY.")
	}
	if cfg.SpeechRate <= 0 || cfg.SpeechRate > 4 {
		warnings = append(warnings, fmt.Sprintf("Invalid speech_rate %v — using default 1.0.", cfg.SpeechRate))
		cfg.SpeechRate = 1.0
	}

	return warnings
}
