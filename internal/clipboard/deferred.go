package clipboard

import (
	"context"
	"fmt"
)

// TextSource produces text that is not known yet when the copy is requested,
// typically a link still being fetched.
type TextSource func(ctx context.Context) (string, error)

// PendingText returns a text/plain item whose data is pulled from source
// when the platform reads it.
func PendingText(source TextSource) Item {
	return Item{
		MIMEType: "text/plain",
		Data: func(ctx context.Context) ([]byte, error) {
			text, err := source(ctx)
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		},
	}
}

// WriteDeferred starts a clipboard write before its text is available. Platforms
// that accept pending items get the write immediately, which keeps it inside
// the user gesture that requested it; otherwise the text is awaited first and
// written through Write.
func (w *Writer) WriteDeferred(ctx context.Context, source TextSource) (err error) {
	if source == nil {
		return ErrNoDataSupplied
	}

	if w.modern() && w.platform.HasPendingItems() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("clipboard item: %v", r)
			}
		}()
		return w.platform.WriteItems(ctx, []Item{PendingText(source)})
	}

	text, err := source(ctx)
	if err != nil {
		return err
	}
	return w.Write(ctx, Payload{Text: text}, Options{})
}
