package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTitle          = "<no title>"
	DefaultPage           = "index.md"
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 10 << 20
	DefaultRepository     = "~/wiki"
)

type WikiConfig struct {
	Title                string   `yaml:"title"`
	DefaultPage          string   `yaml:"default_page"`
	Stylesheets          []string `yaml:"stylesheets,omitempty"`
	Host                 string   `yaml:"host"`
	Port                 int      `yaml:"port"`
	DataDir              string   `yaml:"data_dir,omitempty"`
	DefaultCommitMessage string   `yaml:"default_commit_message"`
	MaxUploadBytes       int64    `yaml:"max_upload_bytes"`
	AllowRawHTML         bool     `yaml:"allow_raw_html"`
	SearchExclude        []string `yaml:"search_exclude,omitempty"`
}

type GitConfig struct {
	Repository string `yaml:"repository"`
	UserName   string `yaml:"user_name"`
	UserEmail  string `yaml:"user_email"`
}

type Config struct {
	Wiki WikiConfig `yaml:"wiki"`
	Git  GitConfig  `yaml:"git"`
}

func DefaultConfig() *Config {
	return &Config{
		Wiki: WikiConfig{
			Title:                DefaultTitle,
			DefaultPage:          DefaultPage,
			Host:                 DefaultHost,
			Port:                 DefaultPort,
			DefaultCommitMessage: DefaultCommitMessage,
			MaxUploadBytes:       DefaultMaxUploadBytes,
		},
		Git: GitConfig{
			Repository: DefaultRepository,
			UserName:   DefaultAuthor,
			UserEmail:  DefaultEmail,
		},
	}
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Wiki.Host + ":" + strconv.Itoa(c.Wiki.Port)
}

// RepositoryPath is the repository location with a leading ~ expanded.
func (c *Config) RepositoryPath() string {
	return expandHome(c.Git.Repository)
}

func (c *Config) DefaultDocument() DocumentPath {
	return DocumentPath(c.Wiki.DefaultPage)
}

// CommitMetadata returns the service identity used for every write.
func (c *Config) CommitMetadata(message string) CommitMetadata {
	if strings.TrimSpace(message) == "" {
		message = c.Wiki.DefaultCommitMessage
	}
	return CommitMetadata{
		AuthorName:     c.Git.UserName,
		AuthorEmail:    c.Git.UserEmail,
		CommitterName:  c.Git.UserName,
		CommitterEmail: c.Git.UserEmail,
		Message:        message,
	}
}

func (c *Config) Validate() error {
	if _, err := NewDocumentPath(c.Wiki.DefaultPage); err != nil {
		return fmt.Errorf("default page %q: %w", c.Wiki.DefaultPage, err)
	}
	for _, s := range c.Wiki.Stylesheets {
		if _, err := NewDocumentPath(s); err != nil {
			return fmt.Errorf("stylesheet %q: %w", s, err)
		}
	}
	if c.Git.Repository == "" {
		return fmt.Errorf("repository path not configured")
	}
	if c.Wiki.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	return nil
}

// LoadConfig reads an INI (.conf, .ini) or YAML (.yaml, .yml) file on
// top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := parseINIConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func parseINIConfig(data []byte, cfg *Config) error {
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, data)
	if err != nil {
		return err
	}

	wiki := f.Section("Wiki")
	cfg.Wiki.Title = wiki.Key("Title").MustString(cfg.Wiki.Title)
	cfg.Wiki.DefaultPage = wiki.Key("DefaultPage").MustString(cfg.Wiki.DefaultPage)
	cfg.Wiki.Host = wiki.Key("Host").MustString(cfg.Wiki.Host)
	cfg.Wiki.Port = wiki.Key("Port").MustInt(cfg.Wiki.Port)
	cfg.Wiki.DataDir = wiki.Key("DataDir").MustString(cfg.Wiki.DataDir)
	cfg.Wiki.DefaultCommitMessage = wiki.Key("DefaultCommitMessage").MustString(cfg.Wiki.DefaultCommitMessage)
	cfg.Wiki.MaxUploadBytes = wiki.Key("MaxUploadBytes").MustInt64(cfg.Wiki.MaxUploadBytes)
	cfg.Wiki.AllowRawHTML = wiki.Key("AllowRawHTML").MustBool(cfg.Wiki.AllowRawHTML)
	if wiki.HasKey("Stylesheet") {
		cfg.Wiki.Stylesheets = nonEmpty(wiki.Key("Stylesheet").Strings(","))
	}
	if wiki.HasKey("SearchExclude") {
		cfg.Wiki.SearchExclude = nonEmpty(wiki.Key("SearchExclude").Strings(","))
	}

	git := f.Section("Git")
	cfg.Git.Repository = git.Key("Repository").MustString(cfg.Git.Repository)
	cfg.Git.UserName = git.Key("User.Name").MustString(cfg.Git.UserName)
	cfg.Git.UserEmail = git.Key("User.Email").MustString(cfg.Git.UserEmail)
	return nil
}

// SaveExampleConfig writes an INI config pointing at repository.
func SaveExampleConfig(path, repository string) error {
	def := DefaultConfig()

	f := ini.Empty()
	wiki := f.Section("Wiki")
	wiki.Key("Title").SetValue("My Wiki")
	wiki.Key("DefaultPage").SetValue(def.Wiki.DefaultPage)
	wiki.Key("Host").SetValue(def.Wiki.Host)
	wiki.Key("Port").SetValue(strconv.Itoa(def.Wiki.Port))

	git := f.Section("Git")
	git.Key("Repository").SetValue(repository)
	git.Key("User.Name").SetValue(def.Git.UserName)
	git.Key("User.Email").SetValue(def.Git.UserEmail)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
