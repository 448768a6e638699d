package tui_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"auri/internal/tui"
	"auri/internal/tui/tuitest"
)

func TestMenuCursorClamps(t *testing.T) {
	m := &tui.Menu{Items: []string{"a", "b", "c"}}
	m.Up()
	assert.Equal(t, 0, m.Cursor)
	assert.True(t, m.Handle(tui.KeyDown))
	assert.True(t, m.Handle('j'))
	assert.True(t, m.Handle('j'))
	assert.Equal(t, 2, m.Cursor)
	assert.True(t, m.Handle('k'))
	assert.Equal(t, 1, m.Cursor)
	assert.False(t, m.Handle('x'))

	lines := m.Lines()
	assert.Equal(t, "  a", lines[0])
	assert.Contains(t, lines[1], "> b")
}

func TestChecklistToggleAndChosenOrder(t *testing.T) {
	c := tui.NewChecklist([]tui.ChecklistItem{
		{ID: "remove_lock", Label: "Remove pacman lock"},
		{ID: "dns_reset", Label: "DNS Reset"},
		{ID: "update_system", Label: "Update System"},
	}, []string{"update_system", "remove_lock"})

	assert.Equal(t, []string{"remove_lock", "update_system"}, c.Chosen())

	c.Handle(tui.KeyDown)
	c.Handle(' ')
	c.Handle(tui.KeyDown)
	c.Handle(' ')
	assert.Equal(t, []string{"remove_lock", "dns_reset"}, c.Chosen())

	lines := c.Lines()
	assert.Equal(t, "  [X] Remove pacman lock", lines[0])
	assert.True(t, strings.Contains(lines[2], "> [ ] Update System"))
}

func TestPagerPausesEveryPage(t *testing.T) {
	ui := &tuitest.Fake{Keys: []tui.Key{' ', ' '}}
	p := tui.NewPager(ui, 2)
	for _, l := range []string{"one", "two", "three", "four", "five"} {
		p.Line(l)
	}
	assert.Equal(t, 5, p.Lines())
	assert.Equal(t, "one\ntwo\n--More--\nthree\nfour\n--More--\nfive\n", ui.Output())
	assert.Empty(t, ui.Keys)
}

func TestPagerPageSizeFallbacks(t *testing.T) {
	assert.Equal(t, 39, tui.NewPager(&tuitest.Fake{Rows: 40}, 0).PerPage)
	assert.Equal(t, tui.DefaultPageLines, tui.NewPager(&tuitest.Fake{}, 0).PerPage)
	assert.Equal(t, 7, tui.NewPager(&tuitest.Fake{Rows: 40}, 7).PerPage)
}

func TestKeyClassification(t *testing.T) {
	assert.True(t, tui.KeyUp.IsUp())
	assert.True(t, tui.Key('k').IsUp())
	assert.True(t, tui.Key('j').IsDown())
	assert.True(t, tui.KeyEscape.IsQuit())
	assert.True(t, tui.Key('q').IsQuit())
	assert.False(t, tui.KeyEnter.IsQuit())
}
