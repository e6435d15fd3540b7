// Package config loads annoview settings from an optional config file and
// ANNOVIEW_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file base name; yaml, json and toml are accepted
const FileName = "annoview"

// Config is the complete application configuration
type Config struct {
	LogLevel    string            `mapstructure:"logLevel"`
	Window      WindowConfig      `mapstructure:"window"`
	Scene       SceneConfig       `mapstructure:"scene"`
	Annotations AnnotationsConfig `mapstructure:"annotations"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Sketch      SketchConfig      `mapstructure:"sketch"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// WindowConfig sizes the viewer windows
type WindowConfig struct {
	Width     int `mapstructure:"width"`
	Height    int `mapstructure:"height"`
	TargetFPS int `mapstructure:"targetFps"`
}

// SceneConfig holds the initial look of the annotation viewer
type SceneConfig struct {
	// Background is the gray level in [0, 1]
	Background float64 `mapstructure:"background"`
	FOV        float64 `mapstructure:"fov"`
	Ambient    float64 `mapstructure:"ambient"`
	Intensity  float64 `mapstructure:"intensity"`
}

// AnnotationsConfig tunes the annotation manager
type AnnotationsConfig struct {
	StorageKey   string        `mapstructure:"storageKey"`
	PopupTimeout time.Duration `mapstructure:"popupTimeout"`
	// MarkerRadius is in world units; zero derives it from the model size
	MarkerRadius float64 `mapstructure:"markerRadius"`
}

// StorageConfig selects and configures the key-value store backend
type StorageConfig struct {
	Type     string         `mapstructure:"type"`
	File     FileConfig     `mapstructure:"file"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FileConfig holds settings for the JSON file store
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// SQLiteConfig holds settings for the sqlite store; an empty path is in memory
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds the postgres connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslMode"`
}

// DSN returns the libpq connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.Username, p.Password, p.Database, p.SSLMode)
}

// WatchConfig controls reloading the model when its files change
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// SketchConfig holds settings for the two-model sketch viewer
type SketchConfig struct {
	TextureA string `mapstructure:"textureA"`
	TextureB string `mapstructure:"textureB"`
	// Ambient is the ambient level in [0, 255]
	Ambient int `mapstructure:"ambient"`
}

// DataDir is where the default stores live
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".annoview"
	}
	return filepath.Join(dir, "annoview")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 800)
	v.SetDefault("window.targetFps", 60)

	v.SetDefault("scene.background", float64(0xdd)/255)
	v.SetDefault("scene.fov", 75.0)
	v.SetDefault("scene.ambient", 0.8)
	v.SetDefault("scene.intensity", 2.0)

	v.SetDefault("annotations.storageKey", "annotations")
	v.SetDefault("annotations.popupTimeout", "5s")
	v.SetDefault("annotations.markerRadius", 0.0)

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.file.path", filepath.Join(DataDir(), "store.json"))
	v.SetDefault("storage.sqlite.path", filepath.Join(DataDir(), "store.db"))
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.username", "postgres")
	v.SetDefault("storage.postgres.password", "postgres")
	v.SetDefault("storage.postgres.database", "annoview")
	v.SetDefault("storage.postgres.sslMode", "disable")

	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("sketch.textureA", "")
	v.SetDefault("sketch.textureB", "")
	v.SetDefault("sketch.ambient", 150)
}

// Load reads the config file from configDir, falling back to the user
// config directory. A missing file is not an error; every key has a default.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(DataDir())

	v.SetEnvPrefix("ANNOVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the viewers cannot work with
func (c Config) Validate() error {
	switch c.Storage.Type {
	case "file", "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
	if c.Annotations.StorageKey == "" {
		return errors.New("annotations.storageKey must not be empty")
	}
	if c.Annotations.PopupTimeout <= 0 {
		return errors.New("annotations.popupTimeout must be positive")
	}
	if c.Scene.Background < 0 || c.Scene.Background > 1 {
		return fmt.Errorf("scene.background must be within [0, 1], got %v", c.Scene.Background)
	}
	return nil
}
