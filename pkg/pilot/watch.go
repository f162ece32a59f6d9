package pilot

import (
	"context"
	"errors"

	"github.com/entrhq/coursepilot/pkg/config"
)

// WatchStore follows the settings file behind the pilot's manager and applies
// external edits to the live controller until ctx ends. It returns the
// watched path.
func (p *Pilot) WatchStore(ctx context.Context) (string, error) {
	if p.manager == nil {
		return "", errors.New("no settings manager")
	}
	store, ok := p.manager.Store().(*config.FileStore)
	if !ok {
		return "", errors.New("settings are not file backed")
	}

	watcher, err := config.NewWatcher(p.manager, store.Path())
	if err != nil {
		return "", err
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return "", err
	}

	go func() {
		<-ctx.Done()
		watcher.Stop()
	}()
	go p.WatchSettings(ctx, watcher.Events())
	return store.Path(), nil
}
