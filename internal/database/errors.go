package database

import "errors"

// ErrConnectionFailed is matched by every *ConnectionError.
var ErrConnectionFailed = errors.New("failed to connect to the database")

// ConnectionError reports a failure to establish a database session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return ErrConnectionFailed.Error()
	}
	return ErrConnectionFailed.Error() + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}
