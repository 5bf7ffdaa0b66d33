package base

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the `validate` tags of an input struct. Failures wrap
// errors.ErrInvalidArgument.
func Validate(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
	}
	return nil
}
