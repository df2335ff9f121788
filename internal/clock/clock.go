package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystem returns a Clock backed by the wall clock in UTC.
func NewSystem() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystem),
)
