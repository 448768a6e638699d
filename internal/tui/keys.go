// Package tui is the raw-mode terminal layer of the interactive menu.
package tui

// Key is a printable rune or one of the negative special keys.
type Key rune

const (
	KeyUp     Key = -1
	KeyDown   Key = -2
	KeyEnter  Key = -3
	KeyEscape Key = -4
	KeyLeft   Key = -5
	KeyRight  Key = -6
	// KeyInterrupt is Ctrl-C, which raw mode delivers as a byte.
	KeyInterrupt Key = -7
)

func (k Key) IsUp() bool   { return k == KeyUp || k == 'k' }
func (k Key) IsDown() bool { return k == KeyDown || k == 'j' }

// IsQuit reports the keys that leave a screen without saving.
func (k Key) IsQuit() bool {
	return k == KeyEscape || k == KeyInterrupt || k == 'q'
}

// UI is everything the screens need from a terminal.
type UI interface {
	Render(lines []string) error
	Print(text string) error
	ReadKey() (Key, error)
	ReadLine(prompt string) (string, error)
	// Suspend restores the cooked terminal while fn runs.
	Suspend(fn func() error) error
	// Height is the number of terminal rows, 0 when unknown.
	Height() int
}

// Highlight renders s in reverse video.
func Highlight(s string) string {
	return "\x1b[7m" + s + "\x1b[0m"
}
