// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Daemon configuration: server name, log level, listeners, operators.

package control

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/hannahherbig/avendesora/api"
)

// DefaultPort is the port used by a listen entry that names only a host.
const DefaultPort = 6667

// ListenSpec is one resolved bind specification. BindTo "*" means every
// interface.
type ListenSpec struct {
	BindTo string `yaml:"bind_to"`
	Port   int    `yaml:"port"`
}

func (l ListenSpec) String() string {
	return fmt.Sprintf("%s:%d", l.BindTo, l.Port)
}

// UnmarshalYAML accepts "host:port", "port", a bare integer port, or a
// {bind_to, port} mapping.
func (l *ListenSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		spec, err := ParseListen(v)
		if err != nil {
			return err
		}
		*l = spec
		return nil
	case uint64:
		*l = ListenSpec{BindTo: "*", Port: int(v)}
		return nil
	case int64:
		*l = ListenSpec{BindTo: "*", Port: int(v)}
		return nil
	case int:
		*l = ListenSpec{BindTo: "*", Port: v}
		return nil
	}
	var m struct {
		BindTo string `yaml:"bind_to"`
		Port   int    `yaml:"port"`
	}
	if err := unmarshal(&m); err != nil {
		return fmt.Errorf("listen entry: %w", err)
	}
	if m.BindTo == "" {
		m.BindTo = "*"
	}
	*l = ListenSpec{BindTo: m.BindTo, Port: m.Port}
	return nil
}

// ParseListen parses "host:port", "[v6]:port" or "port".
func ParseListen(s string) (ListenSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ListenSpec{}, fmt.Errorf("%w: empty listen entry", api.ErrInvalidConfig)
	}
	if !strings.Contains(s, ":") {
		port, err := strconv.Atoi(s)
		if err != nil {
			return ListenSpec{BindTo: s, Port: DefaultPort}, nil
		}
		return ListenSpec{BindTo: "*", Port: port}, nil
	}
	host, p, err := net.SplitHostPort(s)
	if err != nil {
		return ListenSpec{}, fmt.Errorf("%w: listen %q: %v", api.ErrInvalidConfig, s, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return ListenSpec{}, fmt.Errorf("%w: listen %q: bad port", api.ErrInvalidConfig, s)
	}
	if host == "" {
		host = "*"
	}
	return ListenSpec{BindTo: host, Port: port}, nil
}

// Operator is an oper{} block. The core only carries it through.
type Operator struct {
	Name     string   `yaml:"name"`
	Password string   `yaml:"password"`
	Flags    []string `yaml:"flags"`
}

// Config is the daemon configuration file.
type Config struct {
	Name      string       `yaml:"name"`
	Logging   string       `yaml:"logging"`
	Listen    []ListenSpec `yaml:"listen"`
	Operators []Operator   `yaml:"operators"`
}

// DefaultConfig returns a configuration with defaults but no listeners.
func DefaultConfig() *Config {
	return &Config{Logging: "info"}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrInvalidConfig, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Verify checks that the configuration can start a server.
func (c *Config) Verify() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", api.ErrInvalidConfig)
	}
	if len(c.Listen) == 0 {
		return fmt.Errorf("%w: at least one listen entry is required", api.ErrInvalidConfig)
	}
	for _, l := range c.Listen {
		if l.Port < 0 || l.Port > 65535 {
			return fmt.Errorf("%w: listen %s: port out of range", api.ErrInvalidConfig, l)
		}
	}
	if _, ok := api.ParseLevel(c.Logging); !ok {
		return fmt.Errorf("%w: unknown log level %q", api.ErrInvalidConfig, c.Logging)
	}
	for _, o := range c.Operators {
		if o.Name == "" {
			return fmt.Errorf("%w: operator without a name", api.ErrInvalidConfig)
		}
	}
	return nil
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() api.Level {
	lvl, _ := api.ParseLevel(c.Logging)
	return lvl
}
