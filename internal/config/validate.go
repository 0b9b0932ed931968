package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultRetries is the number of build or test attempts per development cycle.
const DefaultRetries = 5

var defaultIntervals = map[string]time.Duration{
	StageRequirements: 60 * time.Second,
	StageArchitecture: 60 * time.Second,
	StageTasks:        60 * time.Second,
	StageTestStrategy: 60 * time.Second,
	StageDevelop:      30 * time.Second,
}

var defaultAgentArgs = []string{"--no-suggest-shell-commands", "--yes-always"}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.Retries < 0 {
		return fmt.Errorf("config: 'retries' must be >= 0")
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.ModePoll < 0 {
		return fmt.Errorf("config: 'mode-poll' must be >= 0")
	}
	if cfg.ModePoll == 0 {
		cfg.ModePoll = Duration(time.Second)
	}

	if cfg.Agent.Command == "" {
		cfg.Agent.Command = "aider"
		if cfg.Agent.Args == nil {
			cfg.Agent.Args = append([]string(nil), defaultAgentArgs...)
		}
	}
	if cfg.Agent.Timeout < 0 {
		return fmt.Errorf("config: agent: timeout must be >= 0")
	}
	if cfg.Build.Command == "" {
		cfg.Build.Command = "make"
	}
	if cfg.Build.Timeout < 0 {
		return fmt.Errorf("config: build: timeout must be >= 0")
	}

	if err := validateArtifacts(&cfg.Artifacts); err != nil {
		return err
	}
	if cfg.Agent.Load == "" {
		cfg.Agent.Load = cfg.Artifacts.Context
	}

	if cfg.Stages == nil {
		cfg.Stages = make(map[string]Stage, len(StageNames))
	}
	for name := range cfg.Stages {
		if _, ok := defaultIntervals[name]; !ok {
			return fmt.Errorf("config: stages: unknown stage %q (must be one of %s)", name, strings.Join(StageNames, ", "))
		}
	}
	for _, name := range StageNames {
		st := cfg.Stages[name]
		if st.Interval < 0 {
			return fmt.Errorf("config: stage %q: interval must be > 0", name)
		}
		if st.Interval == 0 {
			st.Interval = Duration(defaultIntervals[name])
		}
		cfg.Stages[name] = st
	}
	return nil
}

func validateArtifacts(a *Artifacts) error {
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"transcript", &a.Transcript, "TRANSCRIPT.md"},
		{"requirements", &a.Requirements, "PROJECT.md"},
		{"architecture", &a.Architecture, "ARCHITECTURE.md"},
		{"tasks", &a.Tasks, "TASKS.md"},
		{"test-strategy", &a.TestStrategy, "TEST_STRATEGY.md"},
		{"context", &a.Context, "CONTEXT.md"},
	}
	seen := make(map[string]string, len(fields))
	for _, f := range fields {
		if *f.value == "" {
			*f.value = f.def
		}
		if filepath.IsAbs(*f.value) || strings.HasPrefix(filepath.Clean(*f.value), "..") {
			return fmt.Errorf("config: artifacts: %s %q must be relative to the project directory", f.key, *f.value)
		}
		if prev, ok := seen[*f.value]; ok {
			return fmt.Errorf("config: artifacts: %s and %s both name %q", prev, f.key, *f.value)
		}
		seen[*f.value] = f.key
	}
	return nil
}
