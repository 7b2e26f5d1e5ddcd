package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gregLibert/uimtool/pkg/uim"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Default EF paths.
const (
	DefaultICCIDPath = "3F00,2FE2"
	DefaultIMSIPath  = "3F00,7FFF,6F07"
)

type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Card   CardConfig   `yaml:"card"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
	Paths  PathsConfig  `yaml:"paths"`
}

type ReaderConfig struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
}

type CardConfig struct {
	Channel int `yaml:"channel"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PathsConfig struct {
	ICCID string `yaml:"iccid"`
	IMSI  string `yaml:"imsi"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: FormatText},
		Log:    LogConfig{Level: "info", Format: "text"},
		Paths:  PathsConfig{ICCID: DefaultICCIDPath, IMSI: DefaultIMSIPath},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Reader.Index < 0 {
		return fmt.Errorf("config.reader.index must be >= 0")
	}
	if c.Card.Channel < 0 || c.Card.Channel > 19 {
		return fmt.Errorf("config.card.channel must be 0..19")
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config.output.format must be text, json or yaml, got %q", c.Output.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json, got %q", c.Log.Format)
	}

	if _, err := uim.EncodePath(c.Paths.ICCID, uim.PathSeparator); err != nil {
		return fmt.Errorf("config.paths.iccid: %w", err)
	}
	if _, err := uim.EncodePath(c.Paths.IMSI, uim.PathSeparator); err != nil {
		return fmt.Errorf("config.paths.imsi: %w", err)
	}
	return nil
}
