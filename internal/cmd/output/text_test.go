package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePrinter records calls and fails on a chosen item.
type fakePrinter[T comparable] struct {
	headerCount int
	footerCount int
	items       []T
	errOnItem   *T
}

func (p *fakePrinter[T]) Header(w io.Writer, count int) {
	p.headerCount = count
	_, _ = io.WriteString(w, "HEADER\n")
}

func (p *fakePrinter[T]) SetHeader(_ WriteFunc[T]) {}

func (p *fakePrinter[T]) SetFooter(_ WriteFunc[T]) {}

func (p *fakePrinter[T]) Item(w io.Writer, item T) error {
	p.items = append(p.items, item)
	if p.errOnItem != nil && item == *p.errOnItem {
		return errors.New("item error")
	}
	_, err := fmt.Fprintf(w, "ITEM:%v\n", item)
	return err
}

func (p *fakePrinter[T]) Footer(w io.Writer, count int) {
	p.footerCount = count
	_, _ = io.WriteString(w, "FOOTER\n")
}

func TestTextHandler_HandleResults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	printer := &fakePrinter[string]{}
	h := NewTextHandler[string](buf, printer)
	require.Equal(t, buf, h.Writer())

	require.NoError(t, h.HandleResults("MQ==", "Mg=="))
	require.Equal(t, "HEADER\nITEM:MQ==\nITEM:Mg==\nFOOTER\n", buf.String())
	require.Equal(t, 2, printer.headerCount)
	require.Equal(t, 2, printer.footerCount)
}

func TestTextHandler_HandleResult(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	printer := &fakePrinter[string]{}

	require.NoError(t, NewTextHandler[string](buf, printer).HandleResult("MQ=="))
	require.Equal(t, "HEADER\nITEM:MQ==\nFOOTER\n", buf.String())
	require.Equal(t, 1, printer.headerCount)
}

func TestTextHandler_HandleResults_Empty(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	printer := &fakePrinter[string]{}

	require.NoError(t, NewTextHandler[string](buf, printer).HandleResults())
	require.Equal(t, "No items found\n", buf.String())
	require.Zero(t, printer.headerCount)
	require.Empty(t, printer.items)
}

func TestTextHandler_HandleResults_ItemError(t *testing.T) {
	t.Parallel()

	bad := "bad"
	buf := &bytes.Buffer{}
	printer := &fakePrinter[string]{errOnItem: &bad}

	err := NewTextHandler[string](buf, printer).HandleResults("MQ==", bad, "Mg==")
	require.EqualError(t, err, "item error")
	require.Equal(t, []string{"MQ==", "bad"}, printer.items)
	require.Zero(t, printer.footerCount)
}

func TestTextHandler_HandleError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	want := errors.New("boom")

	err := NewTextHandler[string](buf, &fakePrinter[string]{}).HandleError(want)
	require.Same(t, want, err)
	require.Empty(t, buf.String())
}
