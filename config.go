package etherlite

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

/*
Settings for "Dial" and "NewClient". Zero durations fall back to the package
defaults. "ChainID" is optional: when zero, the client asks the node via
"eth_chainId" the first time it signs a transaction.

"Logger" receives debug output about broadcasts and receipt polls, and
warnings about websocket reconnects. Nil disables logging. "Registerer"
enables Prometheus metrics; nil disables them.
*/
type Config struct {
	RpcUrl          string `validate:"required,url"`
	ChainID         uint64
	PollInterval    time.Duration `validate:"gte=0"`
	MaxPollInterval time.Duration `validate:"omitempty,gtefield=PollInterval"`
	ConfirmTimeout  time.Duration `validate:"gte=0"`

	Logger     logrus.FieldLogger    `validate:"-"`
	Registerer prometheus.Registerer `validate:"-"`
}

var validate = validator.New()

/*
Checks the config for structural errors, such as a missing or malformed RPC
URL or negative durations. Doesn't contact the node.
*/
func (self Config) Validate() error {
	err := validate.Struct(self)
	return errors.Wrap(err, "invalid client config")
}

// Copy of the config with defaults filled in. Used for the fields a transport
// doesn't need, so "NewClient" doesn't require "RpcUrl".
func (self Config) withDefaults() Config {
	self.PollInterval = durationOr(self.PollInterval, defaultPollInterval)
	self.MaxPollInterval = durationOr(self.MaxPollInterval, defaultMaxPollInterval)
	self.ConfirmTimeout = durationOr(self.ConfirmTimeout, defaultConfirmTimeout)
	if self.MaxPollInterval < self.PollInterval {
		self.MaxPollInterval = self.PollInterval
	}
	self.Logger = loggerOrDiscard(self.Logger)
	return self
}

var discardLogger = func() *logrus.Logger {
	out := logrus.New()
	out.SetOutput(io.Discard)
	out.SetLevel(logrus.PanicLevel)
	return out
}()

func loggerOrDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return discardLogger
	}
	return logger
}
