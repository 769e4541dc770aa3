package cmd

import (
	"github.com/mozilla-ai/bookstore/internal/config"
)

// fakeConfigLoader implements config.Loader for testing.
type fakeConfigLoader struct {
	cfg *config.Config
	err error
}

func (f *fakeConfigLoader) Load(_ string) (*config.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

// fakeInitializer implements config.Initializer for testing.
type fakeInitializer struct {
	path string
	err  error
}

func (f *fakeInitializer) Init(path string) error {
	f.path = path
	return f.err
}

func ptr[T any](v T) *T {
	return &v
}
