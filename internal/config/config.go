// internal/config/config.go
//
// This package handles configuration and the .groupassess directory structure.
// Every course workspace that uses groupassess gets a .groupassess/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each workspace
	Dir = ".groupassess"

	// HandlerPlaceholder is substituted with the block handler name in server.handler_path.
	HandlerPlaceholder = "{handler}"

	defaultBaseURL     = "http://127.0.0.1:8000"
	defaultHandlerPath = "/courses/xblock/{usage_id}/handler/{handler}"
	defaultTimeout     = 30 * time.Second
	defaultMinAssessed = 1
)

const defaultProjectConfigYAML = `# groupassess configuration
version: 1

server:
  base_url: http://127.0.0.1:8000
  # {usage_id} and {handler} are substituted for every request.
  handler_path: /courses/xblock/{usage_id}/handler/{handler}
  timeout: 30s

course:
  usage_id: ""

student:
  name: ""
  email: ""

workflow:
  # Number of group members that must be assessed before further
  # assessments only refresh the assessment and grade sections.
  minimum_assessments: 1
  # Re-enable the submit button when the submission confirmation is declined.
  reenable_on_decline: false

i18n:
  # Optional YAML catalog mapping source strings to translations.
  catalog: ""
`

// ServerConfig describes how block handlers are reached.
type ServerConfig struct {
	BaseURL     string `yaml:"base_url"`
	HandlerPath string `yaml:"handler_path"`
	Timeout     string `yaml:"timeout,omitempty"`
}

// CourseConfig identifies the block instance on the page.
type CourseConfig struct {
	UsageID string `yaml:"usage_id"`
}

// StudentConfig pre-fills the join-group form.
type StudentConfig struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// WorkflowConfig captures submission workflow preferences.
type WorkflowConfig struct {
	MinimumAssessments int  `yaml:"minimum_assessments"`
	ReenableOnDecline  bool `yaml:"reenable_on_decline"`
}

// I18nConfig points at an optional message catalog.
type I18nConfig struct {
	Catalog string `yaml:"catalog,omitempty"`
}

// ProjectConfig models .groupassess/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Course   CourseConfig   `yaml:"course"`
	Student  StudentConfig  `yaml:"student"`
	Workflow WorkflowConfig `yaml:"workflow"`
	I18n     I18nConfig     `yaml:"i18n"`
}

// Config holds the runtime configuration for groupassess.
type Config struct {
	// WorkspaceDir is the directory where the user ran `groupassess` from
	WorkspaceDir string

	// ProjectDir is WorkspaceDir/.groupassess
	ProjectDir string

	Project ProjectConfig
}

// InitDir creates the .groupassess directory structure in the given workspace.
//
// Structure created:
// .groupassess/
// ├── config.yaml
// └── logs/      <- diagnostic and journey logs
func InitDir(workspaceDir string) error {
	root := filepath.Join(workspaceDir, Dir)
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(workspaceDir string) (*Config, error) {
	cfg := &Config{
		WorkspaceDir: workspaceDir,
		ProjectDir:   filepath.Join(workspaceDir, Dir),
		Project:      defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize(workspaceDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ProjectDir, "config.yaml")
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return parseTimeout(c.Project.Server.Timeout)
}

// MinimumAssessments returns how many members must be assessed before the
// continued-assessment refresh policy applies.
func (c *Config) MinimumAssessments() int {
	return c.Project.Workflow.MinimumAssessments
}

// ReenableOnDecline reports whether a declined confirmation re-enables the submit control.
func (c *Config) ReenableOnDecline() bool {
	return c.Project.Workflow.ReenableOnDecline
}

// CatalogPath returns the resolved i18n catalog path, or "".
func (c *Config) CatalogPath() string {
	return c.Project.I18n.Catalog
}

// HandlerURL resolves the absolute URL of a named block handler.
func (c *Config) HandlerURL(handler string) string {
	path := c.Project.Server.HandlerPath
	path = strings.ReplaceAll(path, "{usage_id}", url.PathEscape(c.Project.Course.UsageID))
	path = strings.ReplaceAll(path, HandlerPlaceholder, url.PathEscape(handler))
	base := strings.TrimRight(c.Project.Server.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Server: ServerConfig{
			BaseURL:     defaultBaseURL,
			HandlerPath: defaultHandlerPath,
			Timeout:     defaultTimeout.String(),
		},
		Workflow: WorkflowConfig{MinimumAssessments: defaultMinAssessed},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Server.BaseURL) == "" {
		pc.Server.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(pc.Server.HandlerPath) == "" {
		pc.Server.HandlerPath = defaultHandlerPath
	}
	if strings.TrimSpace(pc.Server.Timeout) == "" {
		pc.Server.Timeout = defaultTimeout.String()
	}
	if pc.Workflow.MinimumAssessments <= 0 {
		pc.Workflow.MinimumAssessments = defaultMinAssessed
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("GROUPASSESS_SERVER_URL")); value != "" {
		pc.Server.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("GROUPASSESS_TIMEOUT")); value != "" {
		if _, err := time.ParseDuration(value); err == nil {
			pc.Server.Timeout = value
		} else if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			pc.Server.Timeout = (time.Duration(secs) * time.Second).String()
		}
	}
	if value := strings.TrimSpace(os.Getenv("GROUPASSESS_USAGE_ID")); value != "" {
		pc.Course.UsageID = value
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Server.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Server.BaseURL), "/")
	pc.Server.HandlerPath = strings.TrimSpace(pc.Server.HandlerPath)
	pc.Course.UsageID = strings.TrimSpace(pc.Course.UsageID)
	pc.Student.Name = strings.TrimSpace(pc.Student.Name)
	pc.Student.Email = strings.TrimSpace(pc.Student.Email)
	pc.I18n.Catalog = resolvePath(base, pc.I18n.Catalog)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	parsed, err := url.Parse(pc.Server.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL")
	}
	if !strings.Contains(pc.Server.HandlerPath, HandlerPlaceholder) {
		return fmt.Errorf("server.handler_path must contain %s", HandlerPlaceholder)
	}
	if _, err := time.ParseDuration(pc.Server.Timeout); err != nil {
		return fmt.Errorf("server.timeout: %w", err)
	}
	if pc.Workflow.MinimumAssessments < 1 {
		return fmt.Errorf("workflow.minimum_assessments must be >= 1")
	}
	return nil
}

func parseTimeout(value string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
