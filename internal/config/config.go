package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the kiosk reads at startup. All values have
// working defaults so a bare checkout boots against a local database
// file.
type Config struct {
	Database DatabaseConfig
	Admin    AdminConfig
	History  HistoryConfig
}

type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
	JournalMode string
}

type AdminConfig struct {
	// CredentialHash is the PBKDF2 credential blob the admin unlock PIN
	// is verified against. Externalized so deployments can rotate it
	// without a rebuild.
	CredentialHash string
}

type HistoryConfig struct {
	TransactionLimit int
	AuditLimit       int
}

// defaultAdminHash matches the credential shipped with the original
// kiosk deployment; override via KIOSK_ADMIN_CREDENTIAL_HASH.
const defaultAdminHash = "3ef6cbe5bbca5bbf8dacd20cc09f0018" +
	"7a419909845783e512671c6627b31c82" +
	"8a92e565359a9fe4e416c5e2f1faa46a"

// Load reads kiosk.yaml from the working directory if present, lets
// environment variables override it, and falls back to defaults.
func Load() (*Config, error) {
	viper.SetConfigName("kiosk")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.BindEnv("database.path", "KIOSK_DATABASE_PATH")
	viper.BindEnv("database.busy_timeout", "KIOSK_DATABASE_BUSY_TIMEOUT")
	viper.BindEnv("database.journal_mode", "KIOSK_DATABASE_JOURNAL_MODE")
	viper.BindEnv("admin.credential_hash", "KIOSK_ADMIN_CREDENTIAL_HASH")
	viper.BindEnv("history.transaction_limit", "KIOSK_HISTORY_TRANSACTION_LIMIT")
	viper.BindEnv("history.audit_limit", "KIOSK_HISTORY_AUDIT_LIMIT")

	viper.SetDefault("database.path", "kiosk.db")
	viper.SetDefault("database.busy_timeout", 5*time.Second)
	viper.SetDefault("database.journal_mode", "WAL")
	viper.SetDefault("admin.credential_hash", defaultAdminHash)
	viper.SetDefault("history.transaction_limit", 20)
	viper.SetDefault("history.audit_limit", 200)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Path:        viper.GetString("database.path"),
			BusyTimeout: viper.GetDuration("database.busy_timeout"),
			JournalMode: viper.GetString("database.journal_mode"),
		},
		Admin: AdminConfig{
			CredentialHash: viper.GetString("admin.credential_hash"),
		},
		History: HistoryConfig{
			TransactionLimit: viper.GetInt("history.transaction_limit"),
			AuditLimit:       viper.GetInt("history.audit_limit"),
		},
	}, nil
}
