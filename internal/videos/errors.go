package videos

import "errors"

var (
	// ErrJanitorClosed indicates the janitor no longer accepts work.
	ErrJanitorClosed = errors.New("asset janitor closed")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)
