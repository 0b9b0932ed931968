package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Stage names. They double as keys under `stages:` in config.yaml.
const (
	StageRequirements = "requirements"
	StageArchitecture = "architecture"
	StageTasks        = "tasks"
	StageTestStrategy = "test-strategy"
	StageDevelop      = "develop"
)

// StageNames lists every stage in pipeline order.
var StageNames = []string{StageRequirements, StageArchitecture, StageTasks, StageTestStrategy, StageDevelop}

// Dir is the per-project workspace directory.
const Dir = ".colossus"

// Duration is a time.Duration that unmarshals from strings like "60s" or
// from a bare integer number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var secs int
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string or integer seconds", node.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Agent configures the code agent command.
type Agent struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Load    string   `yaml:"load"`
	Timeout int      `yaml:"timeout"` // minutes, 0 = none
}

// Build configures the build system command. The verb is appended as the
// final argument.
type Build struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout int      `yaml:"timeout"` // minutes, 0 = none
}

// Artifacts names the documents inside the project directory.
type Artifacts struct {
	Transcript   string `yaml:"transcript"`
	Requirements string `yaml:"requirements"`
	Architecture string `yaml:"architecture"`
	Tasks        string `yaml:"tasks"`
	TestStrategy string `yaml:"test-strategy"`
	Context      string `yaml:"context"`
}

// Stage overrides the defaults for one stage.
type Stage struct {
	Interval    Duration `yaml:"interval"`
	Instruction string   `yaml:"instruction"`
	Disabled    bool     `yaml:"disabled"`
}

// Config is the contents of .colossus/config.yaml after validation.
type Config struct {
	Model     string           `yaml:"model"`
	Retries   int              `yaml:"retries"`
	ModePoll  Duration         `yaml:"mode-poll"`
	Agent     Agent            `yaml:"agent"`
	Build     Build            `yaml:"build"`
	Artifacts Artifacts        `yaml:"artifacts"`
	Stages    map[string]Stage `yaml:"stages"`
}

// Path returns the config file location for a project.
func Path(projectDir string) string {
	return filepath.Join(projectDir, Dir, "config.yaml")
}

// Load reads the project's config file and returns a validated Config.
// A missing file yields the defaults.
func Load(projectDir string) (*Config, error) {
	data, err := os.ReadFile(Path(projectDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Stage returns the settings for the named stage.
func (c *Config) Stage(name string) Stage {
	return c.Stages[name]
}

// Vars returns the template variables available to stage instructions.
func (c *Config) Vars(projectDir string) map[string]string {
	return map[string]string{
		"PROJECT_DIR":   projectDir,
		"TRANSCRIPT":    c.Artifacts.Transcript,
		"REQUIREMENTS":  c.Artifacts.Requirements,
		"ARCHITECTURE":  c.Artifacts.Architecture,
		"TASKS":         c.Artifacts.Tasks,
		"TEST_STRATEGY": c.Artifacts.TestStrategy,
		"CONTEXT":       c.Artifacts.Context,
	}
}
