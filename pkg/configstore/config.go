// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	dir      string
	fileMode os.FileMode
	logger   *slog.Logger
}

// Option configures a Store.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithDir sets the directory modes.json, alerts.json and config.json are
// read from and written to. Required.
func WithDir(dir string) Option {
	return optionFunc(func(c *config) { c.dir = dir })
}

// WithFileMode overrides the permission bits new documents are written
// with. Defaults to 0o600.
func WithFileMode(mode os.FileMode) Option {
	return optionFunc(func(c *config) { c.fileMode = mode })
}

// WithLogger overrides the Store's logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *config) { c.logger = logger })
}

func newConfig(opts ...Option) config {
	c := config{
		fileMode: 0o600,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt.apply(&c)
	}
	return c
}
