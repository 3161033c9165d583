package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document-level failures. Every error returned by ReadDocument and
// ReadDocumentBytes wraps exactly one of these.
var (
	ErrPasswordProtected = errors.New("document is password protected")
	ErrUnreadable        = errors.New("document is unreadable")
)

// classify maps a toolkit error onto the document sentinels.
func classify(stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPasswordProtected) || errors.Is(err, ErrUnreadable) {
		return err
	}
	if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "password") {
		return fmt.Errorf("%w: %s: %v", ErrPasswordProtected, stage, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnreadable, stage, err)
}
