// Package clipboard copies text or items to a clipboard through whichever
// strategy the platform supports: the modern clipboard API first, then a
// legacy selection-and-copy command for plain text.
package clipboard

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoDataSupplied     = errors.New("no data was supplied")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnsupportedBrowser = errors.New("none of the copying methods are supported")
)

const writePermission = "clipboard-write"

type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionPrompt  PermissionState = "prompt"
	PermissionDenied  PermissionState = "denied"
)

// DataFunc yields the bytes of a clipboard item. It may block until data that
// is still being produced becomes available.
type DataFunc func(ctx context.Context) ([]byte, error)

type Item struct {
	MIMEType string
	Data     DataFunc
}

// StaticItem wraps data that is already known.
func StaticItem(mimeType string, data []byte) Item {
	return Item{
		MIMEType: mimeType,
		Data:     func(context.Context) ([]byte, error) { return data, nil },
	}
}

// Payload carries either Text or Items. Text wins when both are set.
type Payload struct {
	Text  string
	Items []Item
}

func (p Payload) empty() bool {
	return p.Text == "" && len(p.Items) == 0
}

type Options struct {
	// RequirePermission queries the clipboard-write permission before writing.
	RequirePermission bool
}

// TemporaryInput is an off-screen, read-only single-line input holding the
// text for the legacy copy command.
type TemporaryInput interface {
	Focus()
	Select()
	Remove() error
}

// Platform exposes the capabilities of the host environment.
type Platform interface {
	IsSecureContext() bool
	HasModernClipboard() bool
	// HasPendingItems reports support for items whose data arrives after the
	// write has been started.
	HasPendingItems() bool
	HasLegacyCopyCommand() bool
	QueryPermission(ctx context.Context, name string) (PermissionState, error)
	WriteText(ctx context.Context, text string) error
	WriteItems(ctx context.Context, items []Item) error
	// CreateTemporaryInput inserts a TemporaryInput holding text into the
	// focused container, or the document body when nothing has focus.
	CreateTemporaryInput(text string) (TemporaryInput, error)
	ExecCopy() error
}

type Writer struct {
	platform Platform
}

func NewWriter(p Platform) *Writer {
	return &Writer{platform: p}
}

func (w *Writer) modern() bool {
	return w.platform.IsSecureContext() && w.platform.HasModernClipboard()
}

// Write copies p using the first strategy the platform supports.
func (w *Writer) Write(ctx context.Context, p Payload, opts Options) error {
	if p.empty() {
		return ErrNoDataSupplied
	}

	if w.modern() {
		if opts.RequirePermission {
			if err := w.checkPermission(ctx); err != nil {
				return err
			}
		}
		return w.writeModern(ctx, p)
	}

	if w.platform.HasLegacyCopyCommand() && p.Text != "" {
		return w.writeLegacy(p.Text)
	}

	return ErrUnsupportedBrowser
}

func (w *Writer) checkPermission(ctx context.Context) error {
	state, err := w.platform.QueryPermission(ctx, writePermission)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	switch state {
	case PermissionGranted, PermissionPrompt:
		return nil
	default:
		return ErrPermissionDenied
	}
}

func (w *Writer) writeModern(ctx context.Context, p Payload) error {
	if p.Text != "" {
		return w.platform.WriteText(ctx, p.Text)
	}
	if len(p.Items) > 0 {
		return w.platform.WriteItems(ctx, p.Items)
	}
	return ErrNoDataSupplied
}

// writeLegacy selects text in a temporary input and runs the copy command.
// The input is removed on every path, including a panicking copy command.
func (w *Writer) writeLegacy(text string) (err error) {
	input, err := w.platform.CreateTemporaryInput(text)
	if err != nil {
		return fmt.Errorf("create temporary input: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("legacy copy: %v", r)
		}
		if rmErr := input.Remove(); rmErr != nil && err == nil {
			err = fmt.Errorf("remove temporary input: %w", rmErr)
		}
	}()

	input.Focus()
	input.Select()
	if err := w.platform.ExecCopy(); err != nil {
		return fmt.Errorf("legacy copy: %w", err)
	}
	return nil
}
