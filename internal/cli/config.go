package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// configFile is the name of the config file inside the config directory.
const configFile = "config.toml"

// Config holds defaults read from the TOML config file. Zero values leave
// the built-in defaults in place.
//
//	resolution = 200
//	delta = 0.5
//	legend = true
//	formats = ["png", "json"]
//
//	[cache]
//	redis = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":9000"
type Config struct {
	Resolution     int      `toml:"resolution"`
	Delta          float64  `toml:"delta"`
	Samples        int      `toml:"samples"`
	Size           int      `toml:"size"`
	Legend         bool     `toml:"legend"`
	NominalDensity bool     `toml:"nominal_density"`
	Workers        int      `toml:"workers"`
	SkipZeros      bool     `toml:"skip_zeros"`
	Formats        []string `toml:"formats"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and locates the cache.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	Redis    string `toml:"redis"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	MaxBodyMB int64  `toml:"max_body_mb"`
}

// loadConfig reads the config file at path. An empty path means the default
// location, which may be absent; an explicit path must exist. Unknown keys
// are rejected so that typos do not pass silently.
func loadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, configFile)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return Config{}, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidOption, err, "parse config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidOption, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
