package isolate

import (
	"go.uber.org/zap"
)

// Config controls the behaviour of an Isolate. Every With method returns a
// copy, so a Config can be shared between isolates.
type Config interface {
	// WithLogger sets the logger used by the isolate. Defaults to a no-op
	// logger.
	WithLogger(logger *zap.Logger) Config

	// WithGCThreshold makes the isolate collect garbage on its own once that
	// many objects were allocated since the last collection. Zero, the
	// default, disables automatic collection; RequestGC still works.
	WithGCThreshold(objects int) Config
}

type config struct {
	logger      *zap.Logger
	gcThreshold int
}

func NewConfig() Config {
	return &config{
		logger: zap.NewNop(),
	}
}

func (c *config) clone() *config {
	ret := *c
	return &ret
}

func (c *config) WithLogger(logger *zap.Logger) Config {
	ret := c.clone()
	if logger == nil {
		logger = zap.NewNop()
	}
	ret.logger = logger
	return ret
}

func (c *config) WithGCThreshold(objects int) Config {
	ret := c.clone()
	if objects < 0 {
		objects = 0
	}
	ret.gcThreshold = objects
	return ret
}
