// Package prompts supplies the system instructions and per-role prompt
// bodies by file name.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

// File names of the built-in prompt set.
const (
	SystemFile     = "00_system_constraints.md"
	PlannerFile    = "01_planner.prompt.md"
	ExecutorFile   = "02_executor.prompt.md"
	ReviewerFile   = "03_reviewer.prompt.md"
	ControllerFile = "04_loop_controller.prompt.md"
)

// ErrUnknownPrompt is returned when a source has no prompt with the given name.
var ErrUnknownPrompt = errors.New("unknown prompt")

// Source reads prompt text by name.
type Source interface {
	Read(name string) (string, error)
}

//go:embed defaults/*.md
var defaultFiles embed.FS

// Embedded returns the prompt set compiled into the binary.
func Embedded() Source {
	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		// defaults/ is always embedded
		panic(err)
	}
	return &fsSource{fsys: sub}
}

type fsSource struct {
	fsys fs.FS
}

func (s *fsSource) Read(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
		}
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}
	return string(data), nil
}

// MapSource serves prompts from memory.
type MapSource map[string]string

// Read implements Source.
func (m MapSource) Read(name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	return text, nil
}

// Names lists the prompt names in m in sorted order.
func (m MapSource) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
