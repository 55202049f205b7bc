package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SFA"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Workbook   WorkbookConfig   `yaml:"workbook" envconfig:"WORKBOOK"`
	Extraction ExtractionConfig `yaml:"extraction" envconfig:"EXTRACTION"`
	Narrative  NarrativeConfig  `yaml:"narrative" envconfig:"NARRATIVE"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// AnalysisTimeout bounds a whole upload request, narrative included.
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" envconfig:"ANALYSIS_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// WorkbookConfig describes where things live in an uploaded workbook.
// Row and column indexes are zero-based.
type WorkbookConfig struct {
	Sheets           SheetNames  `yaml:"sheets" envconfig:"SHEETS"`
	Labels           LabelConfig `yaml:"labels" envconfig:"LABELS"`
	LabelColumn      int         `yaml:"label_column" envconfig:"LABEL_COLUMN" validate:"gte=0"`
	HeaderRow        int         `yaml:"header_row" envconfig:"HEADER_ROW" validate:"gte=0"`
	FirstValueColumn int         `yaml:"first_value_column" envconfig:"FIRST_VALUE_COLUMN" validate:"gtfield=LabelColumn"`
}

// SheetNames holds the four required statement sheets.
type SheetNames struct {
	IncomeStatement string `yaml:"income_statement" envconfig:"INCOME_STATEMENT" validate:"required"`
	BudgetVsActual  string `yaml:"budget_vs_actual" envconfig:"BUDGET_VS_ACTUAL" validate:"required"`
	CashFlow        string `yaml:"cash_flow" envconfig:"CASH_FLOW" validate:"required"`
	BalanceSheet    string `yaml:"balance_sheet" envconfig:"BALANCE_SHEET" validate:"required"`
}

// LabelConfig holds the row labels extracted from the statements.
type LabelConfig struct {
	RentalIncome      string `yaml:"rental_income" envconfig:"RENTAL_INCOME" validate:"required"`
	ProjectedRent     string `yaml:"projected_rent" envconfig:"PROJECTED_RENT" validate:"required"`
	OccupiedSqFt      string `yaml:"occupied_sq_ft" envconfig:"OCCUPIED_SQ_FT" validate:"required"`
	NetRentableSqFt   string `yaml:"net_rentable_sq_ft" envconfig:"NET_RENTABLE_SQ_FT" validate:"required"`
	Occupancy         string `yaml:"occupancy" envconfig:"OCCUPANCY" validate:"required"`
	InterestExpense   string `yaml:"interest_expense" envconfig:"INTEREST_EXPENSE" validate:"required"`
	OperatingCashFlow string `yaml:"operating_cash_flow" envconfig:"OPERATING_CASH_FLOW" validate:"required"`
	Cash              string `yaml:"cash" envconfig:"CASH" validate:"required"`
	Escrow            string `yaml:"escrow" envconfig:"ESCROW" validate:"required"`
}

// ExtractionConfig holds the explicit fallback for the one optional row.
type ExtractionConfig struct {
	// InterestExpenseFallback is used for every month when the interest
	// expense row is absent from the income statement.
	InterestExpenseFallback float64 `yaml:"interest_expense_fallback" envconfig:"INTEREST_FALLBACK" validate:"gte=0"`
	AllowInterestFallback   bool    `yaml:"allow_interest_fallback" envconfig:"ALLOW_INTEREST_FALLBACK"`
}

// NarrativeConfig configures the commentary generator.
type NarrativeConfig struct {
	Provider    string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=none openai gemini"`
	// Model defaults per provider when empty.
	Model       string        `yaml:"model" envconfig:"MODEL"`
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key" envconfig:"API_KEY"`
	Temperature float32       `yaml:"temperature" envconfig:"TEMPERATURE" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" envconfig:"MAX_TOKENS" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// UploadConfig bounds workbook uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" envconfig:"MAX_BYTES" validate:"gt=0"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SFA_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes logging settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
	if c.Narrative.Provider != "none" && c.Narrative.APIKey == "" {
		return fmt.Errorf("narrative provider %q requires an API key", c.Narrative.Provider)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			AnalysisTimeout: 75 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Workbook: WorkbookConfig{
			Sheets: SheetNames{
				IncomeStatement: "Rolling IS 7988",
				BudgetVsActual:  "BvA 7988",
				CashFlow:        "Cash Flow 7988",
				BalanceSheet:    "Balance Sheet 7988",
			},
			Labels: LabelConfig{
				RentalIncome:      "Rental Income (4000)",
				ProjectedRent:     "Projected Rent (9975)",
				OccupiedSqFt:      "Occupied Sq. Ft. (9955)",
				NetRentableSqFt:   "Net Rentable Square Feet (9951)",
				Occupancy:         "Sq. Ft. Occupancy (9960)",
				InterestExpense:   "Interest Expense (6015)",
				OperatingCashFlow: "Cash Provided By / (Used In) Operating Activities",
				Cash:              "Cash",
				Escrow:            "Escrow/Earnest Money Deposits",
			},
			LabelColumn:      2,
			HeaderRow:        3,
			FirstValueColumn: 3,
		},
		Extraction: ExtractionConfig{
			InterestExpenseFallback: DefaultInterestExpense,
			AllowInterestFallback:   true,
		},
		Narrative: NarrativeConfig{
			Provider:    "none",
			Temperature: 0.5,
			MaxTokens:   800,
			Timeout:     DefaultNarrativeTimeout,
		},
		Upload: UploadConfig{
			MaxBytes: DefaultMaxUploadBytes,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
