package config

import "errors"

var (
	// ErrInvalid indicates a setting outside its allowed values.
	ErrInvalid = errors.New("config: invalid setting")
)
