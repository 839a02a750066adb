package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for csync.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	Engine    EngineConfig    `toml:"engine"`
	Transfer  TransferConfig  `toml:"transfer"`
	Database  DatabaseConfig  `toml:"database"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// EngineConfig locates the external transfer engine and its own config file.
type EngineConfig struct {
	BinPath    string `toml:"bin_path"`    // defaults to "rclone" on PATH
	ConfigPath string `toml:"config_path"` // empty means the engine's default
}

// TransferConfig holds the user-tunable multi-thread download policy.
// Values outside the supported range are clamped at use, not here.
type TransferConfig struct {
	MultiThreadEnabled     bool  `toml:"multi_thread_enabled"`
	MultiThreadStreams     int   `toml:"multi_thread_streams"`
	MultiThreadCutoffBytes int64 `toml:"multi_thread_cutoff_bytes"`
}

// DatabaseConfig represents configuration for the schedule database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SchedulerConfig tunes the scheduler daemon.
type SchedulerConfig struct {
	TickSeconds int  `toml:"tick_seconds"` // due-schedule poll interval, defaults to 60
	WatchConfig bool `toml:"watch_config"` // reload policy on config file change
}

// NewConfig creates a Config with the default layout rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Engine: EngineConfig{
			BinPath:    "rclone",
			ConfigPath: filepath.Join(baseDir, "engine.conf"),
		},
		Transfer: TransferConfig{
			MultiThreadEnabled:     true,
			MultiThreadStreams:     4,
			MultiThreadCutoffBytes: 100_000_000,
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Scheduler: SchedulerConfig{
			TickSeconds: 60,
			WatchConfig: true,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
