package extractor

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// preflight parses the cross-reference structure with pdfcpu so encrypted
// and structurally broken files are rejected before text extraction. It
// returns the page count pdfcpu reports.
func preflight(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: preflight crashed: %v", ErrUnreadable, r)
		}
	}()

	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, classify("preflight", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, classify("page count", err)
	}
	if ctx.PageCount == 0 {
		return 0, fmt.Errorf("%w: document has no pages", ErrUnreadable)
	}
	return ctx.PageCount, nil
}
