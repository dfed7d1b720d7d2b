package config

import (
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/spf13/viper"

	"github.com/warnlimit/warnlimit/internal/intern"
	"github.com/warnlimit/warnlimit/internal/limits"
)

// configType is the settings file format.
const configType = "toml"

// rawKind mirrors one kind table as it appears on disk.
type rawKind struct {
	Regex   string   `mapstructure:"regex"`
	Files   []string `mapstructure:"files"`
	Default any      `mapstructure:"default"`
}

// Load reads and validates the settings file at path.
func Load(path string) (*Settings, error) {
	viperCfg := viper.New()
	viperCfg.SetConfigFile(path)
	viperCfg.SetConfigType(configType)

	if err := viperCfg.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	return fromViper(viperCfg)
}

// Read parses settings from an in-memory TOML stream.
func Read(r io.Reader) (*Settings, error) {
	viperCfg := viper.New()
	viperCfg.SetConfigType(configType)

	if err := viperCfg.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	return fromViper(viperCfg)
}

func fromViper(viperCfg *viper.Viper) (*Settings, error) {
	var raw map[string]rawKind

	if err := viperCfg.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	// Viper hands back a map; sort the names so kind handles and every
	// downstream iteration are deterministic.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}

	sort.Strings(names)

	settings := &Settings{
		arena:   intern.NewArena(),
		kinds:   make(map[limits.Kind]KindConfig, len(raw)),
		ignored: make(map[limits.Kind]bool),
	}

	for _, name := range names {
		cfg, err := compileKind(raw[name])
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", name, err)
		}

		kind := limits.KindOf(settings.arena.Insert(name))
		settings.kinds[kind] = cfg
		settings.ordered = append(settings.ordered, kind)
	}

	return settings, nil
}

func compileKind(raw rawKind) (KindConfig, error) {
	if raw.Regex == "" {
		return KindConfig{}, ErrMissingRegex
	}

	if len(raw.Files) == 0 {
		return KindConfig{}, ErrMissingFiles
	}

	// Multi-line mode: ^ and $ match per line, the way warning regexes
	// are written.
	re, err := regexp.Compile("(?m)" + raw.Regex)
	if err != nil {
		return KindConfig{}, fmt.Errorf("compile regex: %w", err)
	}

	if re.SubexpIndex("file") < 0 {
		return KindConfig{}, ErrMissingFileCapture
	}

	def, err := parseDefault(raw.Default)
	if err != nil {
		return KindConfig{}, err
	}

	return KindConfig{
		Regex:         re,
		Files:         raw.Files,
		Default:       def,
		Categorizable: re.SubexpIndex("category") >= 0,
	}, nil
}
