package tui

// DefaultPageLines is used when neither settings nor the terminal give a
// page size.
const DefaultPageLines = 20

// Pager prints streamed lines and waits for a key after every full page.
type Pager struct {
	UI      UI
	PerPage int
	count   int
}

// NewPager uses perPage, or the terminal height minus a status row when
// perPage is 0.
func NewPager(ui UI, perPage int) *Pager {
	if perPage <= 0 {
		perPage = ui.Height() - 1
	}
	if perPage <= 0 {
		perPage = DefaultPageLines
	}
	return &Pager{UI: ui, PerPage: perPage}
}

// Line prints one output line. It matches executor.LineFunc.
func (p *Pager) Line(line string) {
	_ = p.UI.Print(line + "\n")
	p.count++
	if p.count%p.PerPage == 0 {
		_ = p.UI.Print("--More--")
		_, _ = p.UI.ReadKey()
		_ = p.UI.Print("\n")
	}
}

func (p *Pager) Lines() int { return p.count }
