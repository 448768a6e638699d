package tui

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when stdin is not a TTY.
var ErrNotTerminal = errors.New("TUI_NO_TTY: the interactive menu needs a terminal")

// Terminal drives a TTY in raw mode. Output uses CRLF line endings because
// raw mode disables output post-processing.
type Terminal struct {
	in  *os.File
	out *os.File
	fd  int
	rd  *bufio.Reader

	mu    sync.Mutex
	state *term.State
}

var _ UI = (*Terminal)(nil)

// Open switches in to raw mode. Close restores it.
func Open(in, out *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	t := &Terminal{in: in, out: out, fd: fd, rd: bufio.NewReader(in)}
	if err := t.raw(); err != nil {
		return nil, err
	}
	_, _ = t.out.WriteString("\x1b[?25l")
	return t, nil
}

func (t *Terminal) raw() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != nil {
		return nil
	}
	st, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("TUI_RAW: %w", err)
	}
	t.state = st
	return nil
}

func (t *Terminal) cooked() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

func (t *Terminal) Close() error {
	_, _ = t.out.WriteString("\x1b[?25h\r\n")
	return t.cooked()
}

func (t *Terminal) write(s string) error {
	t.mu.Lock()
	rawMode := t.state != nil
	t.mu.Unlock()
	if rawMode {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	_, err := t.out.WriteString(s)
	return err
}

// Render clears the screen and draws lines from the top.
func (t *Terminal) Render(lines []string) error {
	return t.write("\x1b[H\x1b[2J" + strings.Join(lines, "\n") + "\n")
}

func (t *Terminal) Print(text string) error {
	return t.write(text)
}

func (t *Terminal) ReadKey() (Key, error) {
	b, err := t.rd.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case '\r', '\n':
		return KeyEnter, nil
	case 3:
		return KeyInterrupt, nil
	case 0x1b:
		if t.rd.Buffered() == 0 {
			return KeyEscape, nil
		}
		next, err := t.rd.ReadByte()
		if err != nil || (next != '[' && next != 'O') {
			return KeyEscape, nil
		}
		code, err := t.rd.ReadByte()
		if err != nil {
			return KeyEscape, nil
		}
		switch code {
		case 'A':
			return KeyUp, nil
		case 'B':
			return KeyDown, nil
		case 'C':
			return KeyRight, nil
		case 'D':
			return KeyLeft, nil
		}
		return KeyEscape, nil
	}
	if b < 0x80 {
		return Key(b), nil
	}
	if err := t.rd.UnreadByte(); err != nil {
		return 0, err
	}
	r, _, err := t.rd.ReadRune()
	if err != nil {
		return 0, err
	}
	return Key(r), nil
}

// ReadLine reads one line in cooked mode so the operator gets echo and
// line editing.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	if err := t.cooked(); err != nil {
		return "", err
	}
	defer func() { _ = t.raw() }()
	_, _ = t.out.WriteString("\x1b[?25h" + prompt)
	line, err := t.rd.ReadString('\n')
	_, _ = t.out.WriteString("\x1b[?25l")
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) Suspend(fn func() error) error {
	_, _ = t.out.WriteString("\x1b[H\x1b[2J\x1b[?25h")
	if err := t.cooked(); err != nil {
		return err
	}
	runErr := fn()
	if err := t.raw(); err != nil && runErr == nil {
		runErr = err
	}
	_, _ = t.out.WriteString("\x1b[?25l")
	return runErr
}

func (t *Terminal) Height() int {
	_, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		return 0
	}
	return h
}
