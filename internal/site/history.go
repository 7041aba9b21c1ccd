package site

import (
	"context"

	"github.com/roach88/kiln/internal/store"
)

// Runs lists the recorded compilation runs, oldest first.
func (s *Site) Runs(ctx context.Context) (runs []store.RunSummary, err error) {
	meta, err := s.openMetadata()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := meta.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return meta.Runs(ctx)
}
