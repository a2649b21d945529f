package cmd

import (
	"context"
	"fmt"

	"github.com/blacktop/imagine/internal/genclient"
	"github.com/blacktop/imagine/internal/history"
	"github.com/blacktop/imagine/internal/kv"
	"github.com/blacktop/imagine/internal/studio"
)

// app bundles the wired components a command works with.
type app struct {
	medium  *kv.SQLite
	store   *history.Store
	machine *studio.Machine
}

// newApp opens and loads the history. With withClient it also builds the
// generation client and state machine, which needs an API key.
func newApp(ctx context.Context, withClient bool) (*app, error) {
	medium, err := kv.OpenSQLite(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("error opening history: %w", err)
	}
	store := history.New(medium, logger)
	store.Load()

	a := &app{medium: medium, store: store}
	if !withClient {
		return a, nil
	}

	client, err := genclient.New(ctx, genclient.Config{
		APIKey:       cfg.APIKey,
		ImageModel:   cfg.ImageModel,
		UpscaleModel: cfg.UpscaleModel,
		Logger:       logger,
	})
	if err != nil {
		medium.Close()
		return nil, err
	}
	a.machine = studio.New(client, store, studio.WithLogger(logger))
	if err := a.machine.SelectStyle(cfg.Style); err != nil {
		medium.Close()
		return nil, err
	}
	if err := a.machine.SelectAspectRatio(cfg.AspectRatio); err != nil {
		medium.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() error {
	return a.medium.Close()
}
