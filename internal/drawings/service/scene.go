package service

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
)

// SceneSource supplies the drawing widget's latest scene. ok is false when
// nothing new arrived since the previous call.
type SceneSource interface {
	Latest(ctx context.Context) (fileID string, scene domain.Scene, ok bool, err error)
}

// SceneBuffer is a SceneSource fed by clients pushing their current scene.
// Only the most recent push is kept.
type SceneBuffer struct {
	mu     sync.Mutex
	fileID string
	scene  domain.Scene
	fresh  bool
}

func NewSceneBuffer() *SceneBuffer {
	return &SceneBuffer{}
}

// Put records the scene shown for fileID, replacing any unsampled push.
func (b *SceneBuffer) Put(fileID string, scene domain.Scene) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fileID = fileID
	b.scene = bytes.Clone(scene)
	b.fresh = true
}

func (b *SceneBuffer) Latest(_ context.Context) (string, domain.Scene, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.fresh {
		return "", nil, false, nil
	}
	b.fresh = false
	return b.fileID, b.scene, true, nil
}

// SampleScene pulls the latest scene from src and applies it to the active
// file. Scenes for a file that is no longer active are dropped.
func (s *SessionService) SampleScene(ctx context.Context, src SceneSource) error {
	fileID, scene, ok, err := src.Latest(ctx)
	if err != nil || !ok {
		return err
	}
	err = s.UpdateContent(fileID, scene)
	if errors.Is(err, domain.ErrNotActive) || errors.Is(err, domain.ErrNoActiveFile) {
		return nil
	}
	return err
}
