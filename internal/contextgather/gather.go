// Package contextgather reads and seeds the context files that are loaded
// into the code agent alongside its instructions.
package contextgather

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// maxFileSize caps how much of one file is copied into a seeded context.
const maxFileSize = 16 * 1024

var ignoredDirs = map[string]bool{
	".git":         true,
	".colossus":    true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
}

// manifests are build and dependency files worth quoting in a seeded context.
var manifests = []string{
	"README.md",
	"Makefile",
	"go.mod",
	"Cargo.toml",
	"package.json",
	"pyproject.toml",
	"requirements.txt",
}

// File is a quoted project file.
type File struct {
	Path    string
	Content string
}

// ProjectContext is a snapshot of a project used to seed CONTEXT.md.
type ProjectContext struct {
	Layout []string // top-level entries, directories suffixed with "/"
	Files  []File
	GitLog string
}

// Gather snapshots projectDir. Missing pieces are left empty.
func Gather(projectDir string) *ProjectContext {
	pc := &ProjectContext{}

	if entries, err := os.ReadDir(projectDir); err == nil {
		for _, e := range entries {
			name := e.Name()
			if ignoredDirs[name] || strings.HasPrefix(name, ".aider") {
				continue
			}
			if e.IsDir() {
				name += "/"
			}
			pc.Layout = append(pc.Layout, name)
		}
	}

	for _, name := range manifests {
		data, err := os.ReadFile(filepath.Join(projectDir, name))
		if err != nil {
			continue
		}
		content := string(data)
		if len(content) > maxFileSize {
			content = content[:maxFileSize] + "\n... (truncated)"
		}
		pc.Files = append(pc.Files, File{Path: name, Content: content})
	}

	cmd := exec.Command("git", "log", "--oneline", "-10")
	cmd.Dir = projectDir
	if out, err := cmd.Output(); err == nil {
		pc.GitLog = strings.TrimSpace(string(out))
	}
	return pc
}

// Render formats the snapshot as the body of a context file.
func (pc *ProjectContext) Render() string {
	var b strings.Builder
	b.WriteString("# Project context\n\n")
	b.WriteString("Conventions for the code agent. Edit freely; this file is loaded into every development step.\n\n")
	b.WriteString("## Build and test\n\n")
	b.WriteString("- `make build` must compile the project.\n")
	b.WriteString("- `make test` must run the whole test suite.\n")

	if len(pc.Layout) > 0 {
		b.WriteString("\n## Layout\n\n")
		for _, l := range pc.Layout {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}
	for _, f := range pc.Files {
		fmt.Fprintf(&b, "\n## %s\n\n```\n%s\n```\n", f.Path, strings.TrimRight(f.Content, "\n"))
	}
	if pc.GitLog != "" {
		fmt.Fprintf(&b, "\n## Recent history\n\n```\n%s\n```\n", pc.GitLog)
	}
	return b.String()
}

// Context is one CONTEXT_*.md file offered to the front-end.
type Context struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// NoContext is the filename that stands for "load nothing".
const NoContext = "None"

// List returns the CONTEXT_*.md files in projectDir sorted by name. When
// there are none it returns a single NoContext entry.
func List(projectDir string) ([]Context, error) {
	matches, err := filepath.Glob(filepath.Join(projectDir, "CONTEXT_*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var out []Context
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(m), err)
		}
		out = append(out, Context{Filename: filepath.Base(m), Content: string(data)})
	}
	if len(out) == 0 {
		out = []Context{{Filename: NoContext}}
	}
	return out, nil
}
