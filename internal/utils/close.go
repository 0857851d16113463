package utils

import (
	"io"
)

// CancelOnClose ties a request context to a response body. Closing the
// body releases the context.
type CancelOnClose struct {
	io.ReadCloser
	Cancel func()
}

// Close closes the body, then cancels the context.
func (c *CancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	if c.Cancel != nil {
		c.Cancel()
	}
	return err
}

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}
