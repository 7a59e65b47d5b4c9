package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dbcore/ccstore/cc"
	"github.com/dbcore/ccstore/internal/ccconfig"
	"github.com/dbcore/ccstore/internal/ccids"
	"github.com/dbcore/ccstore/internal/ccmetrics"
	"github.com/dbcore/ccstore/internal/sgt"
	"github.com/dbcore/ccstore/internal/ss2pl"
	"github.com/dbcore/ccstore/internal/storage"
)

// store bundles the columns a scenario or benchmark reads and writes
// with a factory that hands out one Coordinator per worker, all sharing
// the same backing strategy state.
type store struct {
	columns    []*storage.MemColumn
	newWorker  func(core uint8) cc.Coordinator
	metrics    *ccmetrics.Recorder
}

func newStore(cfg ccconfig.Config, log *zap.SugaredLogger) (*store, error) {
	metrics, err := ccmetrics.NewRecorder()
	if err != nil {
		return nil, fmt.Errorf("build metrics recorder: %w", err)
	}

	columns := make([]*storage.MemColumn, cfg.Columns)
	for i := range columns {
		columns[i] = storage.NewMemColumn(cfg.CellsPerColumn, 0)
	}

	var newWorker func(core uint8) cc.Coordinator
	switch cfg.Strategy {
	case ccconfig.StrategySS2PL:
		shared := ss2pl.NewShared(metrics)
		newWorker = func(core uint8) cc.Coordinator { return ss2pl.NewCoordinator(shared, core) }
	case ccconfig.StrategySGT:
		shared := sgt.NewShared(metrics)
		newWorker = func(core uint8) cc.Coordinator { return sgt.NewCoordinator(shared, core) }
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}

	log.Infow("store initialized", "strategy", cfg.Strategy, "columns", cfg.Columns, "cells_per_column", cfg.CellsPerColumn)

	return &store{columns: columns, newWorker: newWorker, metrics: metrics}, nil
}

func (s *store) column(id ccids.ColumnID) *storage.MemColumn {
	return s.columns[id]
}
