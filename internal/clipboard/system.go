package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

var errUnsupportedMIME = errors.New("unsupported clipboard item type")

// SystemPlatform copies through the operating system clipboard in local
// sessions and falls back to an OSC 52 escape sequence written to the
// terminal, which reaches the user's clipboard across SSH and tmux.
type SystemPlatform struct {
	term   io.Writer
	remote bool
	tmux   bool
	screen bool

	// Overridable for tests.
	writeAll    func(string) error
	unsupported bool

	mu       sync.Mutex
	inputs   map[*terminalInput]struct{}
	selected *terminalInput
}

// NewSystemPlatform returns a platform writing OSC 52 sequences to term.
// A nil term disables the terminal fallback.
func NewSystemPlatform(term io.Writer) *SystemPlatform {
	return &SystemPlatform{
		term:        term,
		remote:      os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "",
		tmux:        os.Getenv("TMUX") != "",
		screen:      os.Getenv("STY") != "",
		writeAll:    clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
		inputs:      make(map[*terminalInput]struct{}),
	}
}

// IsSecureContext is true for local sessions; a remote shell cannot reach the
// desktop clipboard even when a clipboard tool is installed.
func (s *SystemPlatform) IsSecureContext() bool { return !s.remote }

func (s *SystemPlatform) HasModernClipboard() bool { return !s.unsupported }

func (s *SystemPlatform) HasPendingItems() bool { return true }

func (s *SystemPlatform) HasLegacyCopyCommand() bool { return s.term != nil }

// QueryPermission always grants: desktop clipboards are not permission gated.
func (s *SystemPlatform) QueryPermission(context.Context, string) (PermissionState, error) {
	return PermissionGranted, nil
}

func (s *SystemPlatform) WriteText(_ context.Context, text string) error {
	if err := s.writeAll(text); err != nil {
		return fmt.Errorf("write system clipboard: %w", err)
	}
	return nil
}

// WriteItems resolves each item and writes it; only text/plain is supported
// and the last item wins.
func (s *SystemPlatform) WriteItems(ctx context.Context, items []Item) error {
	for _, item := range items {
		if item.MIMEType != "text/plain" {
			return fmt.Errorf("%w: %s", errUnsupportedMIME, item.MIMEType)
		}
		data, err := item.Data(ctx)
		if err != nil {
			return err
		}
		if err := s.WriteText(ctx, string(data)); err != nil {
			return err
		}
	}
	return nil
}

type terminalInput struct {
	platform *SystemPlatform
	text     string
}

func (i *terminalInput) Focus() {}

func (i *terminalInput) Select() {
	i.platform.mu.Lock()
	defer i.platform.mu.Unlock()
	i.platform.selected = i
}

func (i *terminalInput) Remove() error {
	p := i.platform
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inputs[i]; !ok {
		return errors.New("temporary input already removed")
	}
	delete(p.inputs, i)
	if p.selected == i {
		p.selected = nil
	}
	return nil
}

func (s *SystemPlatform) CreateTemporaryInput(text string) (TemporaryInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	input := &terminalInput{platform: s, text: text}
	s.inputs[input] = struct{}{}
	return input, nil
}

// ExecCopy emits the selected text as an OSC 52 sequence.
func (s *SystemPlatform) ExecCopy() error {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()
	if selected == nil {
		return errors.New("nothing selected")
	}

	seq := osc52.New(selected.text)
	if s.tmux {
		seq = seq.Tmux()
	} else if s.screen {
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(s.term); err != nil {
		return fmt.Errorf("write osc52 sequence: %w", err)
	}
	return nil
}
