package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/api"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/modstore"
	"github.com/mesh-intelligence/wardrobe/pkg/sqlite"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// session is an attached store with the registry loaded from it.
type session struct {
	store types.Store
	mods  *modstore.Store
	reg   *collections.Registry
	api   *api.Service
}

// open attaches the store, reads the installed mods and loads the registry.
// The caller must close the session.
func (a *app) open() (*session, error) {
	if err := os.MkdirAll(a.cfg.ModDir, 0o755); err != nil {
		return nil, fmt.Errorf("create mod dir: %w", err)
	}
	mods, err := modstore.Open(a.cfg.ModDir, a.log)
	if err != nil {
		return nil, fmt.Errorf("open mods: %w", err)
	}

	store := sqlite.NewBackend(a.log)
	if err := store.Attach(a.cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	reg := collections.New(mods, collections.WithStore(store), collections.WithLogger(a.log))
	if err := reg.Load(); err != nil {
		store.Detach()
		return nil, fmt.Errorf("load collections: %w", err)
	}
	a.log.Debug("session opened", slog.String("data_dir", a.cfg.DataDir), slog.Int("mods", len(mods.Mods())))
	return &session{store: store, mods: mods, reg: reg, api: api.New(reg)}, nil
}

func (s *session) close() error {
	return s.store.Detach()
}

// withSession runs fn on an open session and closes it afterwards.
func (a *app) withSession(fn func(s *session) error) (err error) {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = fmt.Errorf("detach store: %w", cerr)
		}
	}()
	return fn(s)
}

// collection finds a collection by id or name.
func (s *session) collection(nameOrID string) (*collections.Collection, error) {
	if c, ok := s.reg.ByID(nameOrID); ok {
		return c, nil
	}
	if c, ok := s.reg.ByName(nameOrID); ok {
		return c, nil
	}
	return nil, fmt.Errorf("collection %q: %w", nameOrID, collections.ErrCollectionNotFound)
}

// assignable resolves the collection argument of an assignment. "None"
// clears the assignment.
func (s *session) assignable(nameOrID string) (*collections.Collection, error) {
	if strings.EqualFold(nameOrID, collections.EmptyName) {
		return nil, nil
	}
	return s.collection(nameOrID)
}
