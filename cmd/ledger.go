package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/store"
)

// startRun opens the run ledger and records a phase start when the store is
// enabled. A disabled or failing store never blocks the pipeline; callers
// get a nil store and carry on.
func startRun(ctx context.Context, phase string) (string, *store.Store) {
	if !cfg.Store.Enabled {
		return "", nil
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		zap.L().Warn("run ledger unavailable", zap.Error(err))
		return "", nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run ledger migrate failed", zap.Error(err))
		st.Close()
		return "", nil
	}

	id, err := st.CreateRun(ctx, phase)
	if err != nil {
		zap.L().Warn("run ledger create failed", zap.Error(err))
		st.Close()
		return "", nil
	}
	return id, st
}

// finishRun records the phase outcome and closes the ledger.
func finishRun(ctx context.Context, st *store.Store, id string, ok bool, stats any) {
	if st == nil {
		return
	}
	status := store.RunStatusComplete
	if !ok {
		status = store.RunStatusFailed
	}
	if err := st.FinishRun(ctx, id, status, stats); err != nil {
		zap.L().Warn("run ledger finish failed", zap.Error(err))
	}
	st.Close()
}
