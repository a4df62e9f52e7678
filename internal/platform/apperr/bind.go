package apperr

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// Bind decodes the request into v. A failure becomes a validation error
// carrying the decoder's message, which names the offending field.
func Bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return Validation("Invalid request body: %v", bindCause(err))
	}
	return nil
}

func bindCause(err error) interface{} {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal
		}
		return he.Message
	}
	return err
}
