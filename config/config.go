// Package config loads the settings for a filesystem-backed cache from a
// file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/tiercache/store/fsstore"
)

// EnvPrefix is prepended to every environment override, e.g. TIERCACHE_TTL.
const EnvPrefix = "TIERCACHE"

// FileMask is a umask-style permission mask. In files it may be written as an
// octal string ("0022") or a plain number.
type FileMask uint32

type Config struct {
	Directory     string        `mapstructure:"directory"`
	TTL           time.Duration `mapstructure:"ttl"`
	FileMask      FileMask      `mapstructure:"fileMask"`
	LogLevel      string        `mapstructure:"logLevel"`
	LogFile       string        `mapstructure:"logFile"`
	LogMaxSize    int           `mapstructure:"logMaxSize"`
	LogMaxBackups int           `mapstructure:"logMaxBackups"`
	LogCompress   bool          `mapstructure:"logCompress"`
}

// Default returns the configuration Load starts from.
func Default() Config {
	return Config{
		Directory:     filepath.Join(os.TempDir(), "tiercache"),
		TTL:           fsstore.DefaultTTL,
		FileMask:      FileMask(fsstore.DefaultFileMask),
		LogLevel:      "info",
		LogMaxSize:    100,
		LogMaxBackups: 10,
		LogCompress:   true,
	}
}

// Load reads path (any format viper understands) over the defaults, applies
// TIERCACHE_* environment overrides and validates the result. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), fileMaskDecodeHook()))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("config: resolve directory: %w", err)
	}
	cfg.Directory = abs
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("directory", d.Directory)
	v.SetDefault("ttl", d.TTL.String())
	v.SetDefault("fileMask", fmt.Sprintf("%04o", uint32(d.FileMask)))
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logFile", "")
	v.SetDefault("logMaxSize", d.LogMaxSize)
	v.SetDefault("logMaxBackups", d.LogMaxBackups)
	v.SetDefault("logCompress", d.LogCompress)
}

// OpenStore creates the filesystem store the configuration describes.
func (c Config) OpenStore(opts ...fsstore.Option) (*fsstore.Store, error) {
	base := []fsstore.Option{
		fsstore.WithTTL(c.TTL),
		fsstore.WithFileMask(os.FileMode(c.FileMask)),
	}
	return fsstore.New(c.Directory, append(base, opts...)...)
}

// durationDecodeHook accepts Go duration strings ("90s", "168h") and bare
// numbers of seconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(time.Duration(0))

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return time.Duration(0), nil
			}
			if d, err := time.ParseDuration(v); err == nil {
				return d, nil
			}
			if secs, err := strconv.ParseFloat(v, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			return nil, fmt.Errorf("invalid duration %q", v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case time.Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported duration type %T", v)
		}
	}
}

// fileMaskDecodeHook parses strings as octal; numbers are taken as is.
func fileMaskDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(FileMask(0))

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			s := strings.TrimPrefix(strings.TrimSpace(v), "0o")
			n, err := strconv.ParseUint(s, 8, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid file mask %q: want octal digits", v)
			}
			return FileMask(n), nil
		case int:
			return FileMask(v), nil
		case int64:
			return FileMask(v), nil
		case uint32:
			return FileMask(v), nil
		case FileMask:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported file mask type %T", v)
		}
	}
}
