package printer

import (
	"fmt"
	"io"

	"github.com/mozilla-ai/bookstore/internal/cmd/output"
)

var _ output.Printer[TokenResult] = (*TokenPrinter)(nil)

// TokenResult pairs an identifier with its opaque token.
type TokenResult struct {
	ID    uint64 `json:"id"    yaml:"id"`
	Token string `json:"token" yaml:"token"`
}

// TokenPrinter handles text output for identifier and token pairs.
type TokenPrinter struct {
	headerFunc output.WriteFunc[TokenResult]
	footerFunc output.WriteFunc[TokenResult]
}

func (p *TokenPrinter) Header(w io.Writer, count int) {
	if p.headerFunc != nil {
		p.headerFunc(w, count)
	}
}

func (p *TokenPrinter) SetHeader(fn output.WriteFunc[TokenResult]) {
	p.headerFunc = fn
}

// Item writes the pair as 'id => token'.
func (p *TokenPrinter) Item(w io.Writer, result TokenResult) error {
	_, err := fmt.Fprintf(w, "%d => %s\n", result.ID, result.Token)
	return err
}

func (p *TokenPrinter) Footer(w io.Writer, count int) {
	if p.footerFunc != nil {
		p.footerFunc(w, count)
	}
}

func (p *TokenPrinter) SetFooter(fn output.WriteFunc[TokenResult]) {
	p.footerFunc = fn
}
