package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tOgg1/visrange/internal/models"
	"gopkg.in/yaml.v3"
)

// Context is the selection commands fall back to when --view or --entity is
// omitted.
type Context struct {
	ViewID   string            `yaml:"view,omitempty"`
	ViewName string            `yaml:"view_name,omitempty"`
	Entity   models.EntityPath `yaml:"entity,omitempty"`

	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty reports whether nothing is selected.
func (c *Context) IsEmpty() bool {
	return c.ViewID == "" && c.Entity == ""
}

// HasView reports whether a view is selected.
func (c *Context) HasView() bool {
	return c.ViewID != ""
}

// HasEntity reports whether an entity is selected.
func (c *Context) HasEntity() bool {
	return c.Entity != ""
}

// Clear drops the selection.
func (c *Context) Clear() {
	*c = Context{UpdatedAt: time.Now()}
}

// SetView selects a view. Any selected entity belonged to the previous view
// and is dropped.
func (c *Context) SetView(id, name string) {
	*c = Context{ViewID: id, ViewName: name, UpdatedAt: time.Now()}
}

// SetEntity selects an entity within the current view.
func (c *Context) SetEntity(entity models.EntityPath) error {
	if !c.HasView() {
		return errors.New("select a view before an entity")
	}
	if err := entity.Validate(); err != nil {
		return err
	}
	c.Entity = entity
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Context) String() string {
	if c.IsEmpty() {
		return "(no context set)"
	}
	var parts []string
	if c.HasView() {
		name := c.ViewName
		if name == "" {
			name = c.ViewID
			if len(name) > 8 {
				name = name[:8]
			}
		}
		parts = append(parts, "view:"+name)
	}
	if c.HasEntity() {
		parts = append(parts, "entity:"+string(c.Entity))
	}
	return strings.Join(parts, " ")
}

// ContextStore keeps the Context in a YAML file.
type ContextStore struct {
	mu   sync.Mutex
	path string
}

// NewContextStore creates a store at path, or at
// ~/.config/visrange/context.yaml when path is empty.
func NewContextStore(path string) *ContextStore {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".config", "visrange", "context.yaml")
	}
	return &ContextStore{path: path}
}

// Path returns the context file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Load reads the context. A missing file yields an empty Context.
func (s *ContextStore) Load() (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := &Context{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return current, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}
	if err := yaml.Unmarshal(data, current); err != nil {
		return nil, fmt.Errorf("failed to parse context %s: %w", s.path, err)
	}
	return current, nil
}

// Save replaces the context file. The write goes through a temporary file so
// a concurrent Load never sees a partial document.
func (s *ContextStore) Save(current *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".context-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write context: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write context: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write context: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write context: %w", err)
	}
	return nil
}

// Clear removes the context file.
func (s *ContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove context: %w", err)
	}
	return nil
}
