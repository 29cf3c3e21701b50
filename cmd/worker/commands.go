package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/drawboard/drawboard-backend/config"
	"github.com/drawboard/drawboard-backend/internal/bootstrap"
	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
	"github.com/drawboard/drawboard-backend/internal/storage/preferences"
)

type env struct {
	cfg     *config.Config
	handles *directory.HandleStore
	prefs   *preferences.Store
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fallback, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		handles: directory.NewHandleStore(cfg.Storage.HandleDBPath),
		prefs:   preferences.NewStore(cfg.Storage.PreferencesPath, fallback),
	}, nil
}

func (e *env) close() {
	if err := e.handles.Close(); err != nil {
		log.Printf("close handle store: %v", err)
	}
}

// load reads the stored document from the preferred backend.
func (e *env) load(ctx context.Context) (*domain.SessionState, storage.Backend, error) {
	b, err := e.prefs.Backend()
	if err != nil {
		return nil, "", err
	}
	adapter, err := bootstrap.NewStorageFactory(e.cfg, e.handles)(b)
	if err != nil {
		return nil, b, err
	}
	if c, ok := adapter.(io.Closer); ok {
		defer c.Close()
	}
	if err := adapter.Initialize(ctx); err != nil {
		return nil, b, fmt.Errorf("failed to initialize %s: %w", b, err)
	}
	st, err := adapter.Load(ctx)
	if err != nil {
		return nil, b, err
	}
	if st == nil {
		return nil, b, fmt.Errorf("nothing stored in %s backend", b)
	}
	return st, b, nil
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// RunShow prints the stored document of the preferred backend.
func RunShow(_ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := timeout()
	defer cancel()

	st, b, err := e.load(ctx)
	if err != nil {
		return err
	}
	log.Printf("backend=%s projects=%d open=%d dirty=%d", b, len(st.Projects), len(st.OpenFiles), len(st.DirtyFiles))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(storage.ToDocument(st))
}

// RunExport writes a project (or every project) into the granted directory.
func RunExport(args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := timeout()
	defer cancel()

	st, _, err := e.load(ctx)
	if err != nil {
		return err
	}

	exporter := directory.New(e.handles)
	projects := st.Projects
	if len(args) > 0 {
		p, err := st.Project(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		projects = []domain.Project{*p}
	}
	for _, p := range projects {
		dir, err := exporter.ExportProject(ctx, p)
		if err != nil {
			return err
		}
		log.Printf("exported %q (%d files) to %s", p.Name, len(p.Files), dir)
	}
	return nil
}

// RunGrant records the default directory, optionally with a display label.
func RunGrant(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: worker grant <dir> [label]")
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := timeout()
	defer cancel()

	dir, err := e.handles.Grant(ctx, args[0])
	if err != nil {
		return err
	}
	label := dir
	if len(args) > 1 {
		label = args[1]
	}
	if err := e.handles.SetLabel(ctx, label); err != nil {
		return err
	}
	log.Printf("granted %s", dir)
	return nil
}

// RunUse changes the preferred backend; a running API process follows it on
// its next preference poll.
func RunUse(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: worker use <backend>")
	}
	b, err := storage.ParseBackend(args[0])
	if err != nil {
		return err
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.prefs.SetBackend(b); err != nil {
		return err
	}
	log.Printf("preferred backend set to %s", b)
	return nil
}
