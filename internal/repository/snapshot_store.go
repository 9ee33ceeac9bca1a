package repository

import (
	"context"
	"errors"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	"FxForecast/pkg/logger"
)

// MirroredStore writes to a primary store and then to best-effort mirrors.
// Reads fall through to the mirrors when the primary has nothing.
type MirroredStore struct {
	primary domrepo.SnapshotStore
	mirrors []domrepo.SnapshotStore
	l       *logger.Logger
}

func NewMirroredStore(primary domrepo.SnapshotStore, l *logger.Logger, mirrors ...domrepo.SnapshotStore) *MirroredStore {
	if l == nil {
		l = logger.Nop()
	}
	return &MirroredStore{primary: primary, mirrors: mirrors, l: l}
}

// Save fails only if the primary write fails.
func (s *MirroredStore) Save(ctx context.Context, name string, doc []byte) error {
	if err := s.primary.Save(ctx, name, doc); err != nil {
		return err
	}
	for _, m := range s.mirrors {
		if err := m.Save(ctx, name, doc); err != nil {
			s.l.Warn("snapshot mirror write failed", logger.String("snapshot", name), logger.Error(err))
		}
	}
	return nil
}

func (s *MirroredStore) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := s.primary.Load(ctx, name)
	if err == nil || !errors.Is(err, models.ErrSnapshotUnavailable) {
		return b, err
	}
	for _, m := range s.mirrors {
		if mb, merr := m.Load(ctx, name); merr == nil {
			return mb, nil
		}
	}
	return nil, err
}

var _ domrepo.SnapshotStore = (*MirroredStore)(nil)
