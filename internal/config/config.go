package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server Server
	Store  Store
	Backup Backup
	Mirror Mirror

	// Timezone used to stamp Fecha/Hora on every ledger row.
	Timezone string
	Location *time.Location
}

// Server holds HTTP server related options.
type Server struct {
	Port         string
	AllowOrigins []string
}

// Store describes the two spreadsheet files and their layout.
type Store struct {
	DataDir      string
	CatalogPath  string
	LedgerPath   string
	CatalogSheet string
	LedgerSheet  string
	Columns      Columns
}

// Columns holds the configurable column names shared by catalog and ledger.
type Columns struct {
	Code        string
	Description string
	Price       string
	CostCenter  string
}

// Backup holds the scheduled ledger snapshot settings. An empty CronSchedule
// disables the job.
type Backup struct {
	CronSchedule string
	Dir          string
}

// Mirror holds the optional best-effort sinks that receive every saved scan.
// A sink is enabled only when its variables are set.
type Mirror struct {
	WebhookURL            string
	SheetsCredentialsPath string
	SheetsSpreadsheetID   string
	MongoURI              string
	MongoDBName           string
}

// LedgerColumns returns the fixed ledger column order. The four catalog
// columns are configurable; the rest are part of the file format.
func (s Store) LedgerColumns() []string {
	return []string{
		s.Columns.Code,
		s.Columns.Description,
		"Cantidad",
		"Valorizado",
		s.Columns.CostCenter,
		"Usuario",
		"Fecha",
		"Hora",
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	dataDir := getenvWithDefault("DATA_DIR", "/data")

	cfg := &Config{
		Server: Server{
			Port:         getenvWithDefault("APP_PORT", "8080"),
			AllowOrigins: splitOrigins(getenvWithDefault("ALLOW_ORIGINS", "*")),
		},
		Store: Store{
			DataDir:      dataDir,
			CatalogPath:  getenvWithDefault("PROD_PATH", filepath.Join(dataDir, "Base_SKU2.xlsx")),
			LedgerPath:   getenvWithDefault("HIST_PATH", filepath.Join(dataDir, "Registro_Escaneos.xlsx")),
			CatalogSheet: getenvWithDefault("PROD_SHEET", "Hoja2"),
			LedgerSheet:  getenvWithDefault("HIST_SHEET", "Escaneos"),
			Columns: Columns{
				Code:        getenvWithDefault("COL_COD", "Codigo"),
				Description: getenvWithDefault("COL_DESC", "Descripcion"),
				Price:       getenvWithDefault("COL_PREC", "Precio"),
				CostCenter:  getenvWithDefault("COL_CENT", "Centro"),
			},
		},
		Backup: Backup{
			CronSchedule: getenvWithDefault("BACKUP_CRON_SCHEDULE", "0 3 * * *"),
			Dir:          getenvWithDefault("BACKUP_DIR", filepath.Join(dataDir, "backups")),
		},
		Mirror: Mirror{
			WebhookURL:            os.Getenv("SCAN_WEBHOOK_URL"),
			SheetsCredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SheetsSpreadsheetID:   os.Getenv("GOOGLE_SHEET_MIRROR_ID"),
			MongoURI:              os.Getenv("MONGODB_URI"),
			MongoDBName:           getenvWithDefault("MONGODB_DB_NAME", "logistica"),
		},
		Timezone: getenvWithDefault("TZ", "America/Santiago"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Store.DataDir == "":
		return errors.New("DATA_DIR must be provided")
	case c.Store.CatalogPath == "":
		return errors.New("PROD_PATH must be provided")
	case c.Store.LedgerPath == "":
		return errors.New("HIST_PATH must be provided")
	case c.Store.CatalogSheet == "":
		return errors.New("PROD_SHEET must be provided")
	case c.Store.LedgerSheet == "":
		return errors.New("HIST_SHEET must be provided")
	}

	cols := c.Store.Columns
	if cols.Code == "" || cols.Description == "" || cols.Price == "" || cols.CostCenter == "" {
		return errors.New("COL_COD, COL_DESC, COL_PREC and COL_CENT must all be non-empty")
	}

	if c.Timezone == "" {
		return errors.New("TZ must be provided")
	}

	if c.Mirror.SheetsSpreadsheetID != "" && c.Mirror.SheetsCredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_MIRROR_ID is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
