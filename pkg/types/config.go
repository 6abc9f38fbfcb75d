package types

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Config holds backend selection and parameters for opening a store.
type Config struct {
	Backend  string `json:"backend" yaml:"backend" mapstructure:"backend" validate:"required,oneof=sqlite memory"`
	DataDir  string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrLogLevelInvalid = errors.New("log level must be one of debug, info, warn, error")
)

var validate = validator.New()

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	switch fe := verrs[0]; {
	case fe.Field() == "Backend" && fe.Tag() == "required":
		return ErrBackendEmpty
	case fe.Field() == "Backend":
		return ErrBackendUnknown
	case fe.Field() == "LogLevel":
		return ErrLogLevelInvalid
	default:
		return err
	}
}
