// Package modstore reads installed mods from a directory tree. Each
// subdirectory of the root is one mod: default_mod.json holds the mod's
// default file redirections and manipulations, and every group_*.json file
// one option group.
package modstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// File names inside a mod directory.
const (
	DefaultFile = "default_mod.json"
	groupPrefix = "group_"
	groupSuffix = ".json"
)

// Mod store errors.
var (
	ErrRootMissing = errors.New("mod directory does not exist")
	ErrModExists   = errors.New("mod already installed")
	ErrInvalidName = errors.New("invalid mod name")
)

// dataFile is the on-disk form of default data and of group options. File
// targets are relative to the mod directory.
type dataFile struct {
	Name          string            `json:"Name,omitempty"`
	Files         map[string]string `json:"Files"`
	Manipulations json.RawMessage   `json:"Manipulations"`
}

type groupFile struct {
	Name            string     `json:"Name"`
	Type            string     `json:"Type"`
	Priority        int        `json:"Priority"`
	DefaultSettings uint64     `json:"DefaultSettings"`
	Options         []dataFile `json:"Options"`
}

// Store is a collections.ModSource over a mod directory. It is safe for
// concurrent use; Reload swaps the mod list atomically.
type Store struct {
	root string
	log  *slog.Logger

	mu     sync.RWMutex
	mods   []*collections.Mod
	byName map[string]*collections.Mod
}

// Open reads every mod under root. A nil logger uses slog.Default.
func Open(root string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{root: root, log: log.With(slog.String("component", "modstore"))}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the mod directory.
func (s *Store) Root() string { return s.root }

// Mods returns the installed mods sorted by name.
func (s *Store) Mods() []*collections.Mod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.mods)
}

// Mod finds an installed mod by directory name.
func (s *Store) Mod(name string) (*collections.Mod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[name]
	return m, ok
}

// Reload rereads the mod directory. Mods that fail to parse are skipped with
// a warning; malformed group files are skipped individually.
func (s *Store) Reload() error {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read mods %s: %w", s.root, ErrRootMissing)
	}
	if err != nil {
		return fmt.Errorf("read mods %s: %w", s.root, err)
	}

	var mods []*collections.Mod
	byName := make(map[string]*collections.Mod)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m, err := s.readMod(e.Name())
		if err != nil {
			s.log.Warn("skipping mod", slog.String("mod", e.Name()), slog.Any("error", err))
			continue
		}
		mods = append(mods, m)
		byName[m.Name] = m
	}

	s.mu.Lock()
	s.mods, s.byName = mods, byName
	s.mu.Unlock()
	s.log.Debug("mods loaded", slog.Int("count", len(mods)))
	return nil
}

func (s *Store) readMod(name string) (*collections.Mod, error) {
	dir := filepath.Join(s.root, name)
	m := &collections.Mod{Name: name}

	var def dataFile
	raw, err := os.ReadFile(filepath.Join(dir, DefaultFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", DefaultFile, err)
	default:
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", DefaultFile, err)
		}
	}
	if m.Default, err = s.data(dir, def); err != nil {
		return nil, fmt.Errorf("%s: %w", DefaultFile, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, groupPrefix+"*"+groupSuffix))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	for _, path := range files {
		g, err := s.readGroup(dir, path)
		if err != nil {
			s.log.Warn("skipping group", slog.String("mod", name), slog.String("file", filepath.Base(path)), slog.Any("error", err))
			continue
		}
		m.Groups = append(m.Groups, g)
	}
	return m, nil
}

func (s *Store) readGroup(dir, path string) (collections.Group, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return collections.Group{}, err
	}
	var gf groupFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		return collections.Group{}, err
	}
	g := collections.Group{Name: gf.Name, Priority: gf.Priority, DefaultSettings: gf.DefaultSettings}
	switch strings.ToLower(gf.Type) {
	case "", "single":
		g.Type = collections.GroupSingle
		if len(gf.Options) > 0 && gf.DefaultSettings >= uint64(len(gf.Options)) {
			g.DefaultSettings = 0
		}
	case "multi":
		g.Type = collections.GroupMulti
	default:
		return collections.Group{}, fmt.Errorf("unknown group type %q", gf.Type)
	}
	for _, o := range gf.Options {
		d, err := s.data(dir, o)
		if err != nil {
			return collections.Group{}, fmt.Errorf("option %s: %w", o.Name, err)
		}
		g.Options = append(g.Options, collections.Option{Name: o.Name, Data: d})
	}
	return g, nil
}

// data converts an on-disk data block: file targets become absolute paths
// inside dir and manipulations are decoded record by record.
func (s *Store) data(dir string, f dataFile) (collections.Data, error) {
	d := collections.Data{Files: make(map[string]string, len(f.Files)), Manipulations: &meta.Dictionary{}}
	for game, rel := range f.Files {
		target := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(rel, `\`, "/")))
		if !strings.HasPrefix(target, dir+string(filepath.Separator)) {
			s.log.Warn("skipping file outside mod", slog.String("path", game), slog.String("target", rel))
			continue
		}
		d.Files[collections.NormalizePath(game)] = target
	}
	if len(f.Manipulations) > 0 && string(f.Manipulations) != "null" {
		manips, err := meta.Decode(f.Manipulations, s.log)
		if err != nil {
			return collections.Data{}, err
		}
		d.Manipulations = manips
	}
	return d, nil
}

// Install writes a mod named name whose default data carries only manips,
// then reloads the store.
func (s *Store) Install(name string, manips *meta.Dictionary) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("install mod %q: %w", name, ErrInvalidName)
	}
	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("install mod %s: %w", name, ErrModExists)
	}
	raw, err := json.Marshal(manips)
	if err != nil {
		return fmt.Errorf("encode manipulations of %s: %w", name, err)
	}
	data, err := json.MarshalIndent(dataFile{Files: map[string]string{}, Manipulations: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", DefaultFile, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("install mod %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), data, 0o644); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("install mod %s: %w", name, err)
	}
	return s.Reload()
}
