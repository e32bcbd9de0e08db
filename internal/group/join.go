package group

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/transport"
)

const (
	msgJoinNameRequired = "Enter your name to join a group."
	msgJoinEmailInvalid = "Enter a valid email address to join a group."
	msgJoinFailed       = "This section could not be loaded."
)

type joinForm struct {
	Name  string `validate:"required,max=255"`
	Email string `validate:"required,email,max=254"`
}

type joinedMsg struct {
	attempt string
	html    string
	err     error
}

// JoinController adds the student to a group.
type JoinController struct {
	deps
	client   transport.Client
	coord    Coordinator
	validate *validator.Validate

	fragment *fragment.Fragment
	control  SubmitControl
	inFlight bool
	attempt  string
	joined   bool
}

// NewJoinController wires a controller to its collaborators.
func NewJoinController(client transport.Client, coord Coordinator, opts ...Option) *JoinController {
	c := &JoinController{
		deps:     newDeps(opts),
		client:   client,
		coord:    coord,
		validate: validator.New(),
	}
	c.control.SetEnabled(true)
	return c
}

// Joined reports whether the last join request succeeded.
func (c *JoinController) Joined() bool { return c.joined }

// Fragment returns the group section rendered by the last successful join.
func (c *JoinController) Fragment() *fragment.Fragment { return c.fragment }

// SubmitEnabled reports the join control state.
func (c *JoinController) SubmitEnabled() bool { return c.control.Enabled() }

// Join validates the form and asks the server to add the student to a group.
// Invalid input never reaches the transport.
func (c *JoinController) Join(name, email string) tea.Cmd {
	if !c.control.Enabled() || c.inFlight {
		return nil
	}
	form := joinForm{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if msg := c.check(form); msg != "" {
		c.coord.ToggleActionError(ScopeJoin, c.lookup(msg))
		return nil
	}
	c.coord.ToggleActionError(ScopeJoin, "")
	c.control.SetEnabled(false)
	c.inFlight = true
	c.attempt = c.newID()
	c.journal.Info("join · requesting group membership")
	client, ctx, attempt := c.client, c.ctx, c.attempt
	return func() tea.Msg {
		html, err := client.JoinGroup(ctx, form.Name, form.Email)
		return joinedMsg{attempt: attempt, html: html, err: err}
	}
}

// Update applies asynchronous results addressed to this controller.
func (c *JoinController) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(joinedMsg)
	if !ok || m.attempt != c.attempt || !c.inFlight {
		return nil
	}
	c.inFlight = false
	c.control.SetEnabled(true)
	if m.err != nil {
		message := c.lookup(msgJoinFailed)
		if terr, ok := transport.AsError(m.err); ok && terr.Message != "" {
			message = terr.Message
		}
		c.journal.Error("join · %s", message)
		c.coord.ToggleActionError(ScopeJoin, message)
		return nil
	}
	if f, err := fragment.Parse(string(RegionJoin), m.html); err == nil {
		c.fragment = f
	}
	c.joined = true
	c.journal.Info("join · joined group")
	return c.coord.ReloadWorkflow()
}

func (c *JoinController) check(form joinForm) string {
	err := c.validate.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Name" {
		return msgJoinNameRequired
	}
	return msgJoinEmailInvalid
}
