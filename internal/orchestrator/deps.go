package orchestrator

import (
	"os"
	"time"

	"github.com/tis24dev/showsave/internal/logging"
)

// TimeProvider abstracts time acquisition for determinism in tests.
type TimeProvider interface {
	Now() time.Time
}

// Deps groups optional orchestrator dependencies.
type Deps struct {
	Logger   *logging.Logger
	Time     TimeProvider
	Hostname func() (string, error)
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

func defaultDeps(logger *logging.Logger) Deps {
	return Deps{
		Logger:   logger,
		Time:     realTimeProvider{},
		Hostname: os.Hostname,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.GetDefaultLogger()
	}
	if d.Time == nil {
		d.Time = realTimeProvider{}
	}
	if d.Hostname == nil {
		d.Hostname = os.Hostname
	}
	return d
}
