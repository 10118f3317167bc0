package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "ORDERS_PARSER_CONFIG"
	labelFolderEnv      = "SHIPPING_LABEL_FOLDER"
	driveTokenEnv       = "DRIVE_ACCESS_TOKEN"
	workbookPathEnv     = "WORKBOOK_PATH"
	ledgerDSNEnv        = "LEDGER_DSN"
	ledgerDriverEnv     = "LEDGER_DRIVER"
	logLevelEnv         = "LOG_LEVEL"
	ordersPathEnv       = "ORDERS_PATH"
	fileStoreBackendEnv = "FILE_STORE_BACKEND"
	ebayStoreEnv        = "EBAY_STORE_NAME"

	// BackendDrive selects the Drive REST file store.
	BackendDrive = "drive"
	// BackendLocal selects a directory on disk as the file store.
	BackendLocal = "local"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Input     InputConfig     `yaml:"input"`
	FileStore FileStoreConfig `yaml:"fileStore"`
	Labels    LabelsConfig    `yaml:"labels"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Channels  ChannelsConfig  `yaml:"channels"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// InputConfig points at the concatenated order snapshots.
type InputConfig struct {
	OrdersPath string `yaml:"ordersPath"`
}

// FileStoreConfig selects and configures the artwork/label store.
type FileStoreConfig struct {
	Backend string      `yaml:"backend"`
	Drive   DriveConfig `yaml:"drive"`
	Local   LocalConfig `yaml:"local"`
}

// DriveConfig describes how to reach the Drive v3 REST API.
type DriveConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	UploadURL         string        `yaml:"uploadUrl"`
	AccessToken       string        `yaml:"accessToken"`
	LabelFolder       string        `yaml:"labelFolder"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"maxAttempts"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
}

// LocalConfig roots the on-disk file store.
type LocalConfig struct {
	Dir string `yaml:"dir"`
}

// LabelsConfig is where freshly bought shipping labels are dropped as {orderID}.pdf.
type LabelsConfig struct {
	Dir string `yaml:"dir"`
}

// SheetsConfig describes the output workbook.
type SheetsConfig struct {
	WorkbookPath  string  `yaml:"workbookPath"`
	SizeThreshold float64 `yaml:"sizeThreshold"`
}

// LedgerConfig describes the processed-order store.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MetricsConfig controls the textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// ChannelsConfig carries per-channel settings the pages themselves lack.
type ChannelsConfig struct {
	EbayStore string `yaml:"ebayStore"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to ORDERS_PARSER_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.FileStore.Backend = strings.ToLower(strings.TrimSpace(cfg.FileStore.Backend))
	if cfg.FileStore.Backend != BackendLocal {
		cfg.FileStore.Backend = BackendDrive
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(labelFolderEnv); v != "" {
		c.FileStore.Drive.LabelFolder = v
	}

	if v := os.Getenv(driveTokenEnv); v != "" {
		c.FileStore.Drive.AccessToken = v
	}

	if v := os.Getenv(fileStoreBackendEnv); v != "" {
		c.FileStore.Backend = v
	}

	if v := os.Getenv(workbookPathEnv); v != "" {
		c.Sheets.WorkbookPath = v
	}

	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(ledgerDriverEnv); v != "" {
		c.Ledger.Driver = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(ordersPathEnv); v != "" {
		c.Input.OrdersPath = v
	}

	if v := os.Getenv(ebayStoreEnv); v != "" {
		c.Channels.EbayStore = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Input.OrdersPath != "" {
		base.Input.OrdersPath = override.Input.OrdersPath
	}

	if override.FileStore.Backend != "" {
		base.FileStore.Backend = override.FileStore.Backend
	}
	d := override.FileStore.Drive
	if d.BaseURL != "" {
		base.FileStore.Drive.BaseURL = d.BaseURL
	}
	if d.UploadURL != "" {
		base.FileStore.Drive.UploadURL = d.UploadURL
	}
	if d.AccessToken != "" {
		base.FileStore.Drive.AccessToken = d.AccessToken
	}
	if d.LabelFolder != "" {
		base.FileStore.Drive.LabelFolder = d.LabelFolder
	}
	if d.Timeout > 0 {
		base.FileStore.Drive.Timeout = d.Timeout
	}
	if d.MaxAttempts > 0 {
		base.FileStore.Drive.MaxAttempts = d.MaxAttempts
	}
	if d.RequestsPerSecond > 0 {
		base.FileStore.Drive.RequestsPerSecond = d.RequestsPerSecond
	}
	if d.Burst > 0 {
		base.FileStore.Drive.Burst = d.Burst
	}
	if override.FileStore.Local.Dir != "" {
		base.FileStore.Local.Dir = override.FileStore.Local.Dir
	}

	if override.Labels.Dir != "" {
		base.Labels.Dir = override.Labels.Dir
	}

	if override.Sheets.WorkbookPath != "" {
		base.Sheets.WorkbookPath = override.Sheets.WorkbookPath
	}
	if override.Sheets.SizeThreshold > 0 {
		base.Sheets.SizeThreshold = override.Sheets.SizeThreshold
	}

	if override.Ledger.Driver != "" {
		base.Ledger.Driver = override.Ledger.Driver
	}
	if override.Ledger.DSN != "" {
		base.Ledger.DSN = override.Ledger.DSN
	}

	if override.Metrics.Textfile != "" {
		base.Metrics.Textfile = override.Metrics.Textfile
	}

	if override.Channels.EbayStore != "" {
		base.Channels.EbayStore = override.Channels.EbayStore
	}

	return base
}

func defaultConfig() Config {
	dir := executableDir()
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Input:   InputConfig{OrdersPath: filepath.Join(dir, "orders.txt")},
		FileStore: FileStoreConfig{
			Backend: BackendDrive,
			Drive: DriveConfig{
				BaseURL:           "https://www.googleapis.com/drive/v3",
				UploadURL:         "https://www.googleapis.com/upload/drive/v3",
				Timeout:           30 * time.Second,
				MaxAttempts:       3,
				RequestsPerSecond: 5,
				Burst:             5,
			},
			Local: LocalConfig{Dir: filepath.Join(dir, "files")},
		},
		Labels:   LabelsConfig{Dir: dir},
		Sheets:   SheetsConfig{WorkbookPath: filepath.Join(dir, "orders.xlsx"), SizeThreshold: 22},
		Ledger:   LedgerConfig{Driver: "sqlite", DSN: filepath.Join(dir, "orders.db")},
		Metrics:  MetricsConfig{Textfile: ""},
		Channels: ChannelsConfig{EbayStore: "stickalz"},
	}
}

// executableDir resolves relative defaults next to the binary.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
