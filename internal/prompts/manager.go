package prompts

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	errs "builder-maps/pkg/errors"
)

const templateSuffix = ".txt.tmpl"

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Manager renders the screening prompts. Templates are parsed once; a file in
// the override directory replaces the embedded template of the same name.
type Manager struct {
	mu     sync.RWMutex
	tpls   map[string]*template.Template
	source map[string]string // name -> "embedded" or the override path
}

// NewManager parses the embedded templates, then any *.txt.tmpl files found in
// overrideDir. An empty overrideDir uses the embedded set only.
func NewManager(overrideDir string) (*Manager, error) {
	m := &Manager{
		tpls:   make(map[string]*template.Template),
		source: make(map[string]string),
	}
	if err := m.load(FS(), "embedded"); err != nil {
		return nil, errs.NewBiz("prompts.NewManager", "failed to load embedded prompts", err)
	}
	if overrideDir == "" {
		return m, nil
	}
	info, err := os.Stat(overrideDir)
	if err != nil || !info.IsDir() {
		return nil, errs.NewValidation("prompts.NewManager", fmt.Sprintf("prompt override dir %q is not a directory", overrideDir), err)
	}
	if err := m.load(os.DirFS(overrideDir), overrideDir); err != nil {
		return nil, errs.NewBiz("prompts.NewManager", "failed to load prompt overrides", err)
	}
	return m, nil
}

func (m *Manager) load(fsys fs.FS, origin string) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, templateSuffix) {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		name := strings.TrimSuffix(path.Base(p), templateSuffix)
		tpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(b))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		m.tpls[name] = tpl
		if origin == "embedded" {
			m.source[name] = origin
		} else {
			m.source[name] = path.Join(origin, p)
		}
		return nil
	})
}

// Names lists the loaded templates with where each came from.
func (m *Manager) Names() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.source))
	for k, v := range m.source {
		out[k] = v
	}
	return out
}

// Render executes a named template with data.
func (m *Manager) Render(name string, data any) (string, error) {
	m.mu.RLock()
	tpl, ok := m.tpls[name]
	m.mu.RUnlock()
	if !ok {
		return "", errs.NewValidation("prompts.Render", fmt.Sprintf("prompt template not found: %s (have %s)", name, strings.Join(m.sortedNames(), ", ")), nil)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", errs.NewBiz("prompts.Render", fmt.Sprintf("execute template %s", name), err)
	}
	return sb.String(), nil
}

func (m *Manager) sortedNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tpls))
	for n := range m.tpls {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
