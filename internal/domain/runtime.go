package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRuntimeFormat is returned when a runtime value is not of the
// form "<minutes> mins".
var ErrInvalidRuntimeFormat = errors.New("invalid runtime format")

// Runtime is a movie length in minutes with a human readable JSON form.
type Runtime int32

func (r Runtime) String() string {
	return fmt.Sprintf("%d mins", int32(r))
}

// MarshalJSON renders the runtime as a quoted "<n> mins" string.
func (r Runtime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(r.String())), nil
}

// UnmarshalJSON accepts only the quoted "<n> mins" form.
func (r *Runtime) UnmarshalJSON(data []byte) error {
	unquoted, err := strconv.Unquote(string(data))
	if err != nil {
		return ErrInvalidRuntimeFormat
	}

	parts := strings.Split(unquoted, " ")
	if len(parts) != 2 || parts[1] != "mins" {
		return ErrInvalidRuntimeFormat
	}

	mins, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return ErrInvalidRuntimeFormat
	}

	*r = Runtime(mins)
	return nil
}
