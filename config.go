package flushz

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned when a BatchConfig cannot drive a Batcher.
var ErrInvalidConfig = errors.New("invalid batch config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// BatchConfig configures the three flush triggers of a Batcher.
// A trigger set to zero is disabled, except Silence which is required.
type BatchConfig struct {
	// Silence is the maximum idle time since the most recent item.
	// The silence timer is rearmed on every item. Must be positive.
	Silence time.Duration `validate:"gt=0"`

	// MaxBurst is the maximum time between a batch's first item and its flush.
	// Zero disables the burst trigger.
	MaxBurst time.Duration `validate:"gte=0"`

	// MaxSize is the item count at which a batch is flushed immediately.
	// Zero disables the size trigger.
	MaxSize int `validate:"gte=0"`
}

// DefaultBatchConfig returns a config with a one second silence window and
// the burst and size triggers disabled.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Silence: time.Second}
}

// Validate reports whether the config can drive a Batcher.
// The returned error wraps ErrInvalidConfig.
func (c BatchConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.Wrap(ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	var rule string
	switch fe.Tag() {
	case "gt":
		rule = "must be greater than"
	case "gte":
		rule = "must not be less than"
	default:
		rule = "failed " + fe.Tag()
	}
	return fmt.Sprintf("%s %s %s, got %v", fe.Field(), rule, fe.Param(), fe.Value())
}
