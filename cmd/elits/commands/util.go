package commands

import (
	"path/filepath"

	"github.com/elits-ai/elits/pkg/config"
	"github.com/elits-ai/elits/pkg/live"
	"github.com/elits-ai/elits/pkg/memory"
)

// openStore opens the conversation store under the configured data dir.
func openStore(cfg *config.Config) (memory.Store, error) {
	return memory.NewBadger(memory.BadgerOptions{
		Dir: filepath.Join(cfg.DataDir, "memory"),
	})
}

// liveOptions translates the config into live client options.
func liveOptions(cfg *config.Config) []live.Option {
	var opts []live.Option
	if len(cfg.Models) > 0 {
		opts = append(opts, live.WithModels(cfg.Models...))
	}
	if cfg.HandshakeTimeout > 0 {
		opts = append(opts, live.WithHandshakeTimeout(cfg.HandshakeTimeout))
	}
	if cfg.Language != "" {
		opts = append(opts, live.WithLanguage(cfg.Language))
	}
	return opts
}
