package config

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServer is the sync endpoint used when neither config nor flags set one.
	DefaultServer = "https://skills-sync.kamusis.com"
	// DefaultTimeout bounds every network operation and the download lock wait.
	DefaultTimeout = 2 * time.Minute
	// MarkerFile is the filename whose presence makes a directory a skill.
	MarkerFile = "SKILL.md"
)

// ScanRoot is a directory searched for skills. Label names the root inside
// archives and in `list` output.
type ScanRoot struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label,omitempty"`
}

// Config is the in-memory representation of ~/.skills-sync/config.yaml.
type Config struct {
	Server      string        `yaml:"server"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Roots       []ScanRoot    `yaml:"roots,omitempty"`
	Excludes    []string      `yaml:"excludes,omitempty"`
	DownloadDir string        `yaml:"download_dir,omitempty"`
}

// Dir returns the absolute path to ~/.skills-sync/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".skills-sync"), nil
}

// Path returns the absolute path to ~/.skills-sync/config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration used when no config file exists.
// The two default roots are the Claude and Codex skill directories under home.
func DefaultConfig(home string) *Config {
	return &Config{
		Server:  DefaultServer,
		Timeout: DefaultTimeout,
		Roots: []ScanRoot{
			{Path: filepath.Join(home, ".claude", "skills"), Label: ".claude/skills"},
			{Path: filepath.Join(home, ".codex", "skills"), Label: ".codex/skills"},
		},
		Excludes: []string{
			".git",
			"node_modules",
			"__pycache__",
		},
		DownloadDir: home,
	}
}

// RootFor builds a ScanRoot for dir. Directories under home are labelled with
// their home-relative path so that extracting into home restores them in
// place; anything else is labelled with its base name.
func RootFor(dir, home string) ScanRoot {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	label := filepath.Base(abs)
	if home != "" {
		if rel, err := filepath.Rel(home, abs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			label = filepath.ToSlash(rel)
		}
	}
	return ScanRoot{Path: abs, Label: label}
}

// Load reads the config file at p. A missing file yields DefaultConfig(home);
// fields absent from the file keep their default values.
func Load(p, home string) (*Config, error) {
	cfg := DefaultConfig(home)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", p, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", p, err)
	}
	for i, r := range cfg.Roots {
		expanded, err := ExpandPath(r.Path)
		if err != nil {
			return nil, err
		}
		if r.Label == "" {
			cfg.Roots[i] = RootFor(expanded, home)
			continue
		}
		cfg.Roots[i].Path = expanded
	}
	cfg.DownloadDir, err = ExpandPath(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save marshals cfg and writes it to p.
func Save(p string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", p, err)
	}
	return nil
}

// ApplyEnv overlays SKILLS_SYNC_* values from the environment and
// ~/.skills-sync/.env onto cfg.
func ApplyEnv(cfg *Config) error {
	server, err := GetConfigValue("SKILLS_SYNC_SERVER")
	if err != nil {
		return err
	}
	if server != "" {
		cfg.Server = server
	}
	timeout, err := GetConfigValue("SKILLS_SYNC_TIMEOUT")
	if err != nil {
		return err
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid SKILLS_SYNC_TIMEOUT %q: %w", timeout, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// Validate checks the server URL and scan root labels.
func (c *Config) Validate() error {
	if err := ValidateServer(c.Server); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	for _, r := range c.Roots {
		if r.Path == "" {
			return fmt.Errorf("scan root with empty path")
		}
		if err := ValidateLabel(r.Label); err != nil {
			return fmt.Errorf("scan root %s: %w", r.Path, err)
		}
	}
	return CheckLabels(c.Roots)
}

// CheckLabels rejects two scan roots that share a label, since their skills
// would merge under one archive directory.
func CheckLabels(roots []ScanRoot) error {
	seen := map[string]string{}
	for _, r := range roots {
		if prev, ok := seen[r.Label]; ok {
			return fmt.Errorf("scan roots %s and %s share the label %q; set a distinct label", prev, r.Path, r.Label)
		}
		seen[r.Label] = r.Path
	}
	return nil
}

// ValidateServer requires an absolute http(s) URL.
func ValidateServer(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("server URL is empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL %q must use http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL %q has no host", s)
	}
	return nil
}

// ValidateLabel requires a non-empty relative slash path without ".." segments.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if strings.Contains(label, "\\") || path.IsAbs(label) || filepath.IsAbs(label) {
		return fmt.Errorf("label %q must be a relative slash path", label)
	}
	for _, part := range strings.Split(label, "/") {
		if part == ".." {
			return fmt.Errorf("label %q must not contain '..'", label)
		}
	}
	return nil
}
