// Package config loads textsync's server configuration: built-in
// defaults, optionally overridden by a TOML file, finally overridden
// by TEXTSYNC_* environment variables.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the server process needs. Grounded on
// zfogg-sidechain/cli/pkg/config's layered viper setup and the
// teacher's cmd/server/main.go env-var Config struct, which this
// replaces with viper's default/file/env precedence chain.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string

	// MaxDocumentSize caps a document's byte length; an insert that
	// would exceed it is rejected by the document's ot.History with the
	// TooLarge error kind, not as BadOp.
	MaxDocumentSize int

	// SessionMailboxSize is the outbound channel capacity given to each
	// attached hub.Session.
	SessionMailboxSize int

	// ReadTimeout/WriteTimeout bound a single websocket frame read or
	// write.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// SQLiteDSN is the snapshot store's data source name. Empty
	// disables persistence entirely.
	SQLiteDSN string

	// SnapshotInterval is how often an active document's Hub is
	// flushed to the snapshot store.
	SnapshotInterval time.Duration

	// IdleExpiry is how long after its last accepted edit a document
	// with no attached sessions is evicted from memory.
	IdleExpiry time.Duration

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// LogFile is the rotating log file path; empty disables file output.
	LogFile string
}

// setDefaults seeds viper with textsync's built-in defaults, applied
// before any file or environment override.
func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("max_document_size", 10*1024*1024)
	v.SetDefault("session_mailbox_size", 64)
	v.SetDefault("read_timeout", 5*time.Minute)
	v.SetDefault("write_timeout", 10*time.Second)
	v.SetDefault("sqlite_dsn", "")
	v.SetDefault("snapshot_interval", 30*time.Second)
	v.SetDefault("idle_expiry", 10*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load builds a Config from defaults, an optional TOML file at
// configPath (silently skipped if configPath is empty or the file
// doesn't exist), and TEXTSYNC_*-prefixed environment variables, in
// that order of increasing precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix("textsync")
	v.AutomaticEnv()

	return &Config{
		Addr:               v.GetString("addr"),
		MaxDocumentSize:    v.GetInt("max_document_size"),
		SessionMailboxSize: v.GetInt("session_mailbox_size"),
		ReadTimeout:        v.GetDuration("read_timeout"),
		WriteTimeout:       v.GetDuration("write_timeout"),
		SQLiteDSN:          v.GetString("sqlite_dsn"),
		SnapshotInterval:   v.GetDuration("snapshot_interval"),
		IdleExpiry:         v.GetDuration("idle_expiry"),
		LogLevel:           v.GetString("log_level"),
		LogFile:            v.GetString("log_file"),
	}, nil
}
