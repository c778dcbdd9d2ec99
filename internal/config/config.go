package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"fastfinder/internal/eventbus"
)

const (
	// FileName is the config file name without extension
	FileName = "fastfinder"
	// EnvPrefix prefixes environment overrides, e.g. FASTFINDER_WORKER_COMMAND
	EnvPrefix = "FASTFINDER"
	// DefaultScript is the worker script looked up next to the executable
	DefaultScript = "fastfilefinder_scan.py"
)

// Config represents the application configuration
type Config struct {
	Worker   WorkerConfig   `mapstructure:"worker" toml:"worker"`
	Pipeline PipelineConfig `mapstructure:"pipeline" toml:"pipeline"`
	Search   SearchDefaults `mapstructure:"search" toml:"search"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// WorkerConfig describes how the search worker is launched
type WorkerConfig struct {
	Command     string   `mapstructure:"command" toml:"command" validate:"required,command"`
	Script      string   `mapstructure:"script" toml:"script"`
	Dir         string   `mapstructure:"dir" toml:"dir" validate:"omitempty,dir"`
	EnvFile     string   `mapstructure:"env_file" toml:"env_file" validate:"omitempty,file_exists"`
	UsePTY      bool     `mapstructure:"use_pty" toml:"use_pty"`
	GracePeriod Duration `mapstructure:"grace_period" toml:"grace_period" validate:"gt=0"`
	Diag        bool     `mapstructure:"diag" toml:"diag"`
}

// PipelineConfig tunes the drain loop
type PipelineConfig struct {
	BatchSize      int      `mapstructure:"batch_size" toml:"batch_size" validate:"min=1,max=1000000"`
	DrainInterval  Duration `mapstructure:"drain_interval" toml:"drain_interval" validate:"gt=0"`
	FilterDebounce Duration `mapstructure:"filter_debounce" toml:"filter_debounce" validate:"gte=0"`
}

// SearchDefaults pre-fill the search form
type SearchDefaults struct {
	Recursive      bool   `mapstructure:"recursive" toml:"recursive"`
	Zip            bool   `mapstructure:"zip" toml:"zip"`
	MaxWorkers     int    `mapstructure:"max_workers" toml:"max_workers" validate:"min=0,max=256"`
	Extensions     string `mapstructure:"extensions" toml:"extensions"`
	ExcludeFolders string `mapstructure:"exclude_folders" toml:"exclude_folders"`
	LegacyDoc      string `mapstructure:"legacy_doc" toml:"legacy_doc" validate:"omitempty,oneof=auto com external"`
}

// LogConfig selects the logger flavour and destination
type LogConfig struct {
	Env  string `mapstructure:"env" toml:"env" validate:"omitempty,oneof=prod production dev development test"`
	File string `mapstructure:"file" toml:"file"`
}

// Duration is a time.Duration written as text ("1.5s") in config files
type Duration time.Duration

// Std returns the duration as time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	*d = Duration(parsed)
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string // explicit file, "" to search the default locations
	used     string
	logger   *zap.Logger
}

// NewConfigService creates a config service. An empty path searches the
// working directory and then the user config directory.
func NewConfigService(path string, logger *zap.Logger) ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &configService{filePath: path, logger: logger.Named("config")}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(path string, bus eventbus.EventBus, logger *zap.Logger) ConfigService {
	cs := NewConfigService(path, logger).(*configService)
	cs.bus = bus
	return cs
}

// Dir returns the per-user configuration directory
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "fastfinder")
}

// DefaultPath is where Save writes when no file was loaded
func DefaultPath() string {
	return filepath.Join(Dir(), FileName+".toml")
}

// Path returns the file the last Load used, or where Save would write
func (cs *configService) Path() string {
	switch {
	case cs.used != "":
		return cs.used
	case cs.filePath != "":
		return cs.filePath
	default:
		return DefaultPath()
	}
}

// Load reads the configuration from the first file found, applies
// FASTFINDER_* environment overrides and validates the result. A missing
// file yields the defaults.
func (cs *configService) Load() (*Config, error) {
	v := newViper()
	if cs.filePath != "" {
		v.SetConfigFile(cs.filePath)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	cfg, used, err := read(v, cs.filePath == "")
	if err != nil {
		return nil, err
	}
	cs.used = used

	if used == "" {
		cs.logger.Info("no config file found, using defaults")
	} else {
		cs.logger.Info("config loaded", zap.String("path", used))
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: used})
	}
	return cfg, nil
}

// Save writes the configuration to the loaded file or the default path
func (cs *configService) Save(config *Config) error {
	path := cs.Path()
	if err := cs.SaveToPath(config, path); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: path})
	}
	return nil
}

// LoadFromPath loads configuration from a specific file
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Errorf("config file not found: %s", path)
	}
	v := newViper()
	v.SetConfigFile(path)
	cfg, _, err := read(v, false)
	return cfg, err
}

// SaveToPath saves configuration to a specific file as TOML
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := Marshal(config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	cs.logger.Info("config saved", zap.String("path", path))
	return nil
}

// Marshal renders the configuration as TOML
func Marshal(config *Config) ([]byte, error) {
	data, err := toml.Marshal(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	command := "python3 -u"
	if runtime.GOOS == "windows" {
		command = "python -u"
	}

	return &Config{
		Worker: WorkerConfig{
			Command:     command,
			Script:      DefaultScript,
			GracePeriod: Duration(1500 * time.Millisecond),
		},
		Pipeline: PipelineConfig{
			BatchSize:      1000,
			DrainInterval:  Duration(100 * time.Millisecond),
			FilterDebounce: Duration(250 * time.Millisecond),
		},
		Search: SearchDefaults{
			Recursive: true,
		},
		Log: LogConfig{
			Env: "dev",
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every key so env overrides apply even when the
// file does not mention it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("worker.command", d.Worker.Command)
	v.SetDefault("worker.script", d.Worker.Script)
	v.SetDefault("worker.dir", d.Worker.Dir)
	v.SetDefault("worker.env_file", d.Worker.EnvFile)
	v.SetDefault("worker.use_pty", d.Worker.UsePTY)
	v.SetDefault("worker.grace_period", d.Worker.GracePeriod.Std().String())
	v.SetDefault("worker.diag", d.Worker.Diag)
	v.SetDefault("pipeline.batch_size", d.Pipeline.BatchSize)
	v.SetDefault("pipeline.drain_interval", d.Pipeline.DrainInterval.Std().String())
	v.SetDefault("pipeline.filter_debounce", d.Pipeline.FilterDebounce.Std().String())
	v.SetDefault("search.recursive", d.Search.Recursive)
	v.SetDefault("search.zip", d.Search.Zip)
	v.SetDefault("search.max_workers", d.Search.MaxWorkers)
	v.SetDefault("search.extensions", d.Search.Extensions)
	v.SetDefault("search.exclude_folders", d.Search.ExcludeFolders)
	v.SetDefault("search.legacy_doc", d.Search.LegacyDoc)
	v.SetDefault("log.env", d.Log.Env)
	v.SetDefault("log.file", d.Log.File)
}

// read loads v into a validated Config. With optional set, a missing
// config file is not an error.
func read(v *viper.Viper, optional bool) (*Config, string, error) {
	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !optional || !errors.As(err, &notFound) {
			return nil, "", errors.Wrap(err, "failed to read config file")
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}
