package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	offline bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger. Open and RunDevServer build a JSON logger on stderr otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOffline runs the editors against the bundled sample portfolio instead of the API.
func WithOffline(offline bool) Option {
	return func(a *application) {
		a.offline = offline
	}
}

func (a *application) apply(opts []Option) error {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return errConfigRequired
	}
	if a.logger == nil {
		a.logger = NewLogger(a.config.App.LogLevel)
	}
	return nil
}
