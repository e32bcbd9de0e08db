package group

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/transport"
)

type gradeLoadedMsg struct {
	html string
	err  error
}

// GradeController shows the grade/results section.
type GradeController struct {
	deps
	client transport.Client
	coord  Coordinator

	fragment *fragment.Fragment
	loads    int
}

// NewGradeController wires a controller to its collaborators.
func NewGradeController(client transport.Client, coord Coordinator, opts ...Option) *GradeController {
	return &GradeController{deps: newDeps(opts), client: client, coord: coord}
}

// Load requests the grade view.
func (c *GradeController) Load() tea.Cmd {
	client, ctx := c.client, c.ctx
	return func() tea.Msg {
		html, err := client.Render(ctx, transport.FragmentGrade)
		return gradeLoadedMsg{html: html, err: err}
	}
}

// Fragment returns the currently rendered view.
func (c *GradeController) Fragment() *fragment.Fragment { return c.fragment }

// Loads counts successful renders.
func (c *GradeController) Loads() int { return c.loads }

// Update applies asynchronous results addressed to this controller.
func (c *GradeController) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(gradeLoadedMsg)
	if !ok {
		return nil
	}
	if m.err != nil {
		c.journal.Error("grade · load failed: %v", m.err)
		c.coord.ShowLoadError(RegionGrade)
		return nil
	}
	f, err := fragment.Parse(string(RegionGrade), m.html)
	if err != nil {
		c.coord.ShowLoadError(RegionGrade)
		return nil
	}
	c.fragment = f
	c.loads++
	c.coord.SetUpCollapseExpand(RegionGrade, nil)
	return nil
}
