package mission

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/kurobon/nexusvc/internal/state"
)

// DefaultID is the mission every new session starts from.
const DefaultID = "default"

//go:embed missions/*.yaml
var builtin embed.FS

// ErrNotFound is returned for an unknown mission id.
var ErrNotFound = errors.New("mission not found")

// Loader handles loading missions from a directory or the built-in set.
type Loader struct {
	fsys   fs.FS
	logger *log.Logger
}

// NewLoader reads missions from dir, falling back to the built-in missions
// for ids dir does not have. An empty dir uses only the built-in set.
func NewLoader(dir string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	l := &Loader{logger: logger}
	builtinFS, _ := fs.Sub(builtin, "missions")
	if dir == "" {
		l.fsys = builtinFS
		return l
	}
	l.fsys = overlayFS{primary: os.DirFS(dir), fallback: builtinFS}
	return l
}

// LoadMission loads a single mission by ID (filename without extension).
func (l *Loader) LoadMission(id string) (*Mission, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	data, err := fs.ReadFile(l.fsys, id+".yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mission file: %w", err)
	}

	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mission yaml %s: %w", id, err)
	}
	// Ensure ID matches filename if not set
	if m.ID == "" {
		m.ID = id
	}
	return &m, nil
}

// ListMissions returns all available missions sorted by id. Files that do
// not parse are logged and skipped.
func (l *Loader) ListMissions() ([]*Mission, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, err
	}
	var missions []*Mission
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		m, err := l.LoadMission(strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			l.logger.Warn("skipping mission", "file", e.Name(), "err", err)
			continue
		}
		missions = append(missions, m)
	}
	sort.Slice(missions, func(i, j int) bool { return missions[i].ID < missions[j].ID })
	return missions, nil
}

// Seed builds the initial repository of mission id.
func (l *Loader) Seed(id string) (*state.Repository, error) {
	m, err := l.LoadMission(id)
	if err != nil {
		return nil, err
	}
	return m.Seed.Repository(time.Now())
}

// DefaultSeed is the repository of the built-in default mission.
func DefaultSeed() (*state.Repository, error) {
	return NewLoader("", nil).Seed(DefaultID)
}

// overlayFS serves names from primary and falls back to fallback when
// primary does not have them. Directory listings are merged.
type overlayFS struct {
	primary, fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return f, err
}

func (o overlayFS) ReadDir(name string) ([]fs.DirEntry, error) {
	a, errA := fs.ReadDir(o.primary, name)
	b, errB := fs.ReadDir(o.fallback, name)
	if errA != nil && errB != nil {
		return nil, errA
	}
	seen := make(map[string]bool, len(a))
	out := make([]fs.DirEntry, 0, len(a)+len(b))
	for _, e := range a {
		seen[e.Name()] = true
		out = append(out, e)
	}
	for _, e := range b {
		if !seen[e.Name()] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}
