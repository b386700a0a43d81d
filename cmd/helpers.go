package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/osoleve/namecorpus/internal/index"
	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
	"github.com/osoleve/namecorpus/internal/store"
)

// openStore opens the configured SQLite store and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// calculator builds the distance calculator from config.
func calculator() (metric.Calculator, error) {
	switch cfg.Metric.Mode {
	case "flat":
		return metric.Calculator{Mode: metric.ModeFlat}, nil
	case "weighted":
		return metric.Calculator{Mode: metric.ModeWeighted}, nil
	default:
		return metric.Calculator{}, eris.Errorf("unknown metric mode %q", cfg.Metric.Mode)
	}
}

// loadIndex builds a metric index over every stored name.
func loadIndex(ctx context.Context, st store.Store, calc metric.Calculator) (*index.MetricIndex, []*model.SyllabifiedName, error) {
	names, err := st.ListNames(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "list names")
	}

	ix := index.New(index.Config{Calculator: calc})
	entries := make([]*model.SyllabifiedName, 0, len(names))
	for i := range names {
		n := &names[i]
		if err := ix.Insert(n); err != nil {
			return nil, nil, eris.Wrapf(err, "index %s", n.ID)
		}
		entries = append(entries, n)
	}
	return ix, entries, nil
}

// loadPairSet reads every judged pair into a lookup set.
func loadPairSet(ctx context.Context, st store.Store) (*model.PairSet, error) {
	pairs, err := st.ListPairs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list pairs")
	}
	return model.NewPairSet(pairs), nil
}
