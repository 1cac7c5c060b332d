package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tidwall/jsonc"
)

// FileConfig is the database section of config.json as written by the desktop shell.
// Comments are tolerated in the file.
type FileConfig struct {
	Type       string   `json:"type,omitempty"`
	Host       string   `json:"host,omitempty"`
	Port       PortSpec `json:"port,omitempty"`
	User       string   `json:"user,omitempty"`
	Password   string   `json:"password,omitempty"`
	Name       string   `json:"name,omitempty"`
	DBURL      string   `json:"dbUrl,omitempty"`
	BackendURL string   `json:"backendUrl,omitempty"`
}

// PortSpec accepts the port either as a JSON number or a string.
type PortSpec string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PortSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PortSpec(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	if _, err := strconv.Atoi(n.String()); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	*p = PortSpec(n.String())
	return nil
}

// LoadFile reads path. A missing file yields an empty FileConfig.
func LoadFile(path string) (*FileConfig, error) {
	fc := &FileConfig{}
	if strings.TrimSpace(path) == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fc, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// SaveFile writes fc to path atomically.
func SaveFile(path string, fc FileConfig) error {
	if err := fc.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	body, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects engines the service cannot open.
func (fc FileConfig) Validate() error {
	_, _, err := fc.resolve()
	return err
}

// Apply overlays the file values onto cfg.
func (fc FileConfig) Apply(cfg *Config) error {
	driver, target, err := fc.resolve()
	if err != nil {
		return err
	}
	switch driver {
	case DriverPostgres:
		cfg.Database.Driver = DriverPostgres
		cfg.Database.DSN = target
	case DriverSQLite:
		cfg.Database.Driver = DriverSQLite
		if target != "" {
			cfg.Database.SQLitePath = target
		}
	}
	if fc.BackendURL != "" && cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = fc.BackendURL
	}
	return nil
}

// Redacted returns a copy without the password, for display.
func (fc FileConfig) Redacted() FileConfig {
	out := fc
	if out.Password != "" {
		out.Password = ""
	}
	if out.DBURL != "" {
		if u, err := url.Parse(out.DBURL); err == nil && u.User != nil {
			u.User = url.User(u.User.Username())
			out.DBURL = u.String()
		}
	}
	return out
}

// resolve returns the driver and DSN/path the file selects. An empty driver means the
// file does not choose one.
func (fc FileConfig) resolve() (string, string, error) {
	dbURL := strings.TrimSpace(fc.DBURL)
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return DriverPostgres, dbURL, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dbURL, "sqlite://"), nil
	case dbURL != "":
		return "", "", fmt.Errorf("unsupported database url %q", redactURL(dbURL))
	}

	switch strings.ToLower(strings.TrimSpace(fc.Type)) {
	case "":
		return "", "", nil
	case "sqlite", "better-sqlite3":
		return DriverSQLite, strings.TrimSpace(fc.Name), nil
	case "postgres", "postgresql":
		if fc.Host == "" || fc.Name == "" {
			return "", "", fmt.Errorf("postgres config requires host and name")
		}
		host := fc.Host
		if fc.Port != "" {
			host = net.JoinHostPort(fc.Host, string(fc.Port))
		}
		u := url.URL{Scheme: "postgres", Host: host, Path: "/" + fc.Name}
		if fc.User != "" {
			u.User = url.UserPassword(fc.User, fc.Password)
		}
		return DriverPostgres, u.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", fc.Type)
	}
}

func redactURL(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[:i] + "://..."
	}
	return "..."
}
