package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/fileutil"
	"github.com/pixperk/spssprep/internal/naming"
)

const DefaultPath = ".spssprep.yaml"

var ErrNotFound = errors.New("config file not found, please provide --config flag or run spssprep init-config")

type Config struct {
	Input                 string          `yaml:"input"`
	InputSheet            string          `yaml:"input_sheet,omitempty"`
	Output                string          `yaml:"output"`
	OutputSheet           string          `yaml:"output_sheet,omitempty"`
	Script                string          `yaml:"script,omitempty"`
	SanitizeNames         *bool           `yaml:"sanitize_names,omitempty"`
	NameStyle             string          `yaml:"name_style,omitempty"`
	MaxNameLength         int             `yaml:"max_name_length,omitempty"`
	IncludeSave           bool            `yaml:"include_save"`
	SavePath              string          `yaml:"save_path,omitempty"`
	PlaceScriptBesideData bool            `yaml:"place_script_beside_data"`
	Defaults              DefaultsConfig  `yaml:"defaults"`
	Columns               []ColumnConfig  `yaml:"columns,omitempty"`
	Warehouse             WarehouseConfig `yaml:"warehouse,omitempty"`
	Watch                 WatchConfig     `yaml:"watch,omitempty"`
}

type DefaultsConfig struct {
	StartValue int    `yaml:"start_value"`
	Direction  string `yaml:"direction"`
}

// ColumnConfig overrides the default policy for one column. Nil pointers
// fall back to Defaults.
type ColumnConfig struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Order      []string `yaml:"order,omitempty"`
	StartValue *int     `yaml:"start_value,omitempty"`
	Direction  *string  `yaml:"direction,omitempty"`
	Identifier string   `yaml:"identifier,omitempty"`
	Sanitize   *bool    `yaml:"sanitize,omitempty"`
}

type WarehouseConfig struct {
	URL       string `yaml:"url,omitempty"`
	Table     string `yaml:"table,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms,omitempty"`
}

type ResolvedColumnConfig struct {
	Name       string
	Kind       encoding.Kind
	Order      []string
	StartValue int
	Direction  encoding.Direction
	Identifier string
	Sanitize   bool
}

// Load reads a YAML (or JSON) config file
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes config bytes. JSON documents are accepted as YAML. Fields of
// defaults that the document leaves out keep the values of Default, so codes
// start at 1 unless start_value says otherwise.
func Parse(data []byte) (*Config, error) {
	config := Config{Defaults: Default().Defaults}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save writes the config atomically
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Defaults.StartValue < 0 {
		return fmt.Errorf("defaults.start_value must be >= 0, got %d", c.Defaults.StartValue)
	}
	if _, err := encoding.ParseDirection(c.Defaults.Direction); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if _, err := naming.ParseStyle(c.NameStyle); err != nil {
		return err
	}
	if c.MaxNameLength < 0 {
		return fmt.Errorf("max_name_length must be >= 0, got %d", c.MaxNameLength)
	}

	seen := make(map[string]bool, len(c.Columns))
	for _, cc := range c.Columns {
		if cc.Name == "" {
			return errors.New("column entry without a name")
		}
		if seen[cc.Name] {
			return fmt.Errorf("column %q configured twice", cc.Name)
		}
		seen[cc.Name] = true
		if _, err := c.ResolveColumnConfig(cc); err != nil {
			return err
		}
	}
	return nil
}

// ShouldSanitize reports the batch-level sanitize_names setting, true when unset
func (c *Config) ShouldSanitize() bool {
	return c.SanitizeNames == nil || *c.SanitizeNames
}

// Sanitizer builds the identifier sanitizer the config asks for
func (c *Config) Sanitizer() naming.Sanitizer {
	s := naming.DefaultSanitizer()
	if style, err := naming.ParseStyle(c.NameStyle); err == nil {
		s.Style = style
	}
	if c.MaxNameLength > 0 {
		s.MaxLength = c.MaxNameLength
	}
	return s
}

// DebounceInterval defaults to 500ms
func (c *Config) DebounceInterval() time.Duration {
	if c.Watch.DebounceMillis > 0 {
		return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
	}
	return 500 * time.Millisecond
}

// Column looks up the entry for a source column
func (c *Config) Column(name string) (ColumnConfig, bool) {
	for _, cc := range c.Columns {
		if cc.Name == name {
			return cc, true
		}
	}
	return ColumnConfig{}, false
}

// SetColumn replaces or appends the entry for cc.Name
func (c *Config) SetColumn(cc ColumnConfig) {
	for i := range c.Columns {
		if c.Columns[i].Name == cc.Name {
			c.Columns[i] = cc
			return
		}
	}
	c.Columns = append(c.Columns, cc)
}

// ResolveColumnConfig fills unset fields from the batch defaults and then
// from built-ins.
func (c *Config) ResolveColumnConfig(cc ColumnConfig) (ResolvedColumnConfig, error) {
	resolved := ResolvedColumnConfig{
		Name:       cc.Name,
		Order:      cc.Order,
		Identifier: cc.Identifier,
	}

	kind := encoding.Nominal
	if cc.Kind != "" {
		k, err := encoding.ParseKind(cc.Kind)
		if err != nil {
			return resolved, fmt.Errorf("column %q: %w", cc.Name, err)
		}
		kind = k
	}
	resolved.Kind = kind

	if cc.StartValue != nil {
		resolved.StartValue = *cc.StartValue
	} else {
		resolved.StartValue = c.Defaults.StartValue
	}
	if resolved.StartValue < 0 {
		return resolved, fmt.Errorf("column %q: start_value must be >= 0", cc.Name)
	}

	direction := c.Defaults.Direction
	if cc.Direction != nil {
		direction = *cc.Direction
	}
	dir, err := encoding.ParseDirection(direction)
	if err != nil {
		return resolved, fmt.Errorf("column %q: %w", cc.Name, err)
	}
	resolved.Direction = dir

	if cc.Sanitize != nil {
		resolved.Sanitize = *cc.Sanitize
	} else {
		resolved.Sanitize = c.ShouldSanitize()
	}

	return resolved, nil
}

// Default is the configuration used when no file exists
func Default() *Config {
	return &Config{
		NameStyle:             string(naming.StyleUnicode),
		PlaceScriptBesideData: true,
		Defaults: DefaultsConfig{
			StartValue: 1,
			Direction:  string(encoding.Ascending),
		},
	}
}
