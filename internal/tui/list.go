package tui

// Menu is a vertical list with a cursor that stops at both ends.
type Menu struct {
	Items  []string
	Cursor int
}

func (m *Menu) Up() {
	if m.Cursor > 0 {
		m.Cursor--
	}
}

func (m *Menu) Down() {
	if m.Cursor < len(m.Items)-1 {
		m.Cursor++
	}
}

// Handle moves the cursor for navigation keys and reports whether the key
// was consumed.
func (m *Menu) Handle(k Key) bool {
	switch {
	case k.IsUp():
		m.Up()
	case k.IsDown():
		m.Down()
	default:
		return false
	}
	return true
}

func (m *Menu) Lines() []string {
	out := make([]string, len(m.Items))
	for i, item := range m.Items {
		if i == m.Cursor {
			out[i] = Highlight("> " + item)
		} else {
			out[i] = "  " + item
		}
	}
	return out
}

// ChecklistItem is one toggleable row keyed by a stable identifier.
type ChecklistItem struct {
	ID    string
	Label string
}

// Checklist is a Menu whose rows can be toggled with space.
type Checklist struct {
	Menu
	Keys     []string
	Selected map[string]bool
}

func NewChecklist(items []ChecklistItem, selected []string) *Checklist {
	c := &Checklist{Selected: map[string]bool{}}
	for _, it := range items {
		c.Items = append(c.Items, it.Label)
		c.Keys = append(c.Keys, it.ID)
	}
	for _, id := range selected {
		c.Selected[id] = true
	}
	return c
}

func (c *Checklist) Toggle() {
	if c.Cursor < 0 || c.Cursor >= len(c.Keys) {
		return
	}
	id := c.Keys[c.Cursor]
	c.Selected[id] = !c.Selected[id]
}

func (c *Checklist) Handle(k Key) bool {
	if k == ' ' {
		c.Toggle()
		return true
	}
	return c.Menu.Handle(k)
}

// Chosen returns the selected identifiers in list order.
func (c *Checklist) Chosen() []string {
	out := []string{}
	for _, id := range c.Keys {
		if c.Selected[id] {
			out = append(out, id)
		}
	}
	return out
}

func (c *Checklist) Lines() []string {
	out := make([]string, len(c.Items))
	for i, label := range c.Items {
		mark := "[ ]"
		if c.Selected[c.Keys[i]] {
			mark = "[X]"
		}
		if i == c.Cursor {
			out[i] = Highlight("> " + mark + " " + label)
		} else {
			out[i] = "  " + mark + " " + label
		}
	}
	return out
}
