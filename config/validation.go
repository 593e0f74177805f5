package config

import (
	"errors"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Directory) == "" {
		errs = append(errs, newFieldError("directory", "required"))
	}
	if c.TTL < 0 {
		errs = append(errs, newFieldError("ttl", "must not be negative"))
	}
	if os.FileMode(c.FileMask)&^os.ModePerm != 0 {
		errs = append(errs, newFieldError("fileMask", "must be within 0777"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, newFieldError("logLevel", "unknown level "+c.LogLevel))
	}
	if c.LogMaxSize < 0 {
		errs = append(errs, newFieldError("logMaxSize", "must not be negative"))
	}
	if c.LogMaxBackups < 0 {
		errs = append(errs, newFieldError("logMaxBackups", "must not be negative"))
	}
	return errors.Join(errs...)
}
