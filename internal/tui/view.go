package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/groupassess/internal/group"
)

const logPanelLines = 8

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	focusedSectionStyle = sectionStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
	titleStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	bannerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	loadErrorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	detailTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	selectedOptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	cursorRowStyle      = lipgloss.NewStyle().Bold(true)
	buttonStyle         = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#5B8DEF")).
				Padding(0, 2)
	disabledButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#777777")).
				Background(lipgloss.Color("#333333")).
				Padding(0, 2)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#F7B801")).
			Padding(1, 2)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := headerStyle.Render("⬡ " + strings.ToUpper(a.lookup("Group Assessment")))
	var body string
	if a.modal != nil {
		body = a.renderModal(width)
	} else {
		sections := []string{
			a.renderSection(focusJoin, a.renderJoin(), width),
			a.renderSection(focusResponse, a.renderResponse(), width),
			a.renderSection(focusAssessment, a.renderAssessment(), width),
			a.renderSection(focusGrade, a.renderGrade(), width),
		}
		a.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
		body = a.viewport.View()
	}
	parts := []string{header, body}
	if panel := a.renderLogPanel(); panel != "" {
		parts = append(parts, panel)
	}
	footer := a.help.View(a.keys)
	if a.statusMsg != "" {
		footer = a.statusMsg + "\n" + footer
	}
	parts = append(parts, footerStyle.Render(footer))
	return strings.Join(parts, "\n")
}

func (a *App) renderSection(focus focusArea, content string, width int) string {
	region := focus.region()
	marker := "▾"
	if a.collapsed[region] {
		marker = "▸"
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s %s", marker, a.sectionTitle(region)))}
	if a.loadErrors[region] {
		lines = append(lines, loadErrorStyle.Render("⚠ "+a.lookup("This section could not be loaded.")))
	} else if !a.collapsed[region] {
		lines = append(lines, content)
	}
	if scope, ok := scopeFor(region); ok {
		if msg, active := a.errors.Get(scope); active {
			lines = append(lines, bannerStyle.Render("✖ "+msg))
		}
	}
	style := sectionStyle
	if a.focus == focus {
		style = focusedSectionStyle
	}
	return style.Width(max(20, width-4)).Render(strings.Join(lines, "\n"))
}

func scopeFor(region group.Region) (group.Scope, bool) {
	switch region {
	case group.RegionJoin:
		return group.ScopeJoin, true
	case group.RegionResponse:
		return group.ScopeResponse, true
	case group.RegionAssessment:
		return group.ScopeAssessment, true
	}
	return "", false
}

func renderButton(label string, enabled bool) string {
	if enabled {
		return buttonStyle.Render(label)
	}
	return disabledButtonStyle.Render(label)
}

func (a *App) renderJoin() string {
	if f := a.join.Fragment(); a.join.Joined() && f != nil {
		return detailTextStyle.Render(f.Text())
	}
	return strings.Join([]string{
		fmt.Sprintf("%s %s", a.lookup("Name:"), a.nameInput.View()),
		fmt.Sprintf("%s %s", a.lookup("Email:"), a.emailInput.View()),
		renderButton(a.lookup("Join group"), a.join.SubmitEnabled()),
	}, "\n")
}

func (a *App) renderResponse() string {
	f := a.response.Fragment()
	if f == nil {
		return detailTextStyle.Render(a.lookup("Loading…"))
	}
	var lines []string
	for _, line := range trimmedLines(f.Text()) {
		lines = append(lines, detailTextStyle.Render(line))
	}
	if f.Has("submission__answer__value") {
		lines = append(lines,
			fmt.Sprintf(a.lookup("Part %d"), a.response.Ordinal()),
			a.responseInput.View(),
			renderButton(a.lookup("Submit your response"), a.response.SubmitEnabled()),
		)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderAssessment() string {
	f := a.assessment.Fragment()
	if f == nil {
		return detailTextStyle.Render(a.lookup("Loading…"))
	}
	criteria := a.criteria()
	if len(criteria) == 0 {
		return detailTextStyle.Render(f.Text())
	}
	var lines []string
	if a.assessment.Continued() {
		lines = append(lines, detailTextStyle.Render(a.lookup("You have met the assessment requirement. You can keep assessing.")))
	}
	rowIndex := 0
	current := a.focus == focusAssessment
	for _, crit := range criteria {
		var opts []string
		chosen := a.optionIndex[crit.Name]
		_, picked := a.optionIndex[crit.Name]
		for j, opt := range crit.Options {
			label := opt.Label
			if picked && j == chosen {
				label = selectedOptionStyle.Render("(•) " + label)
			} else {
				label = "( ) " + label
			}
			opts = append(opts, label)
		}
		row := fmt.Sprintf("%s: %s", crit.Name, strings.Join(opts, "  "))
		lines = append(lines, markRow(row, current && a.criterionRow == rowIndex))
		rowIndex++
		if crit.Feedback {
			editing := current && a.criterionRow == rowIndex
			note := a.noteFor(crit.Name)
			switch {
			case editing:
				note = "\n" + a.noteInput.View()
			case note == "":
				note = detailTextStyle.Render(a.lookup("(no comments)"))
			}
			lines = append(lines, markRow("    "+a.lookup("Comments:")+" "+note, editing))
			rowIndex++
		}
	}
	lines = append(lines,
		a.lookup("Overall feedback"),
		a.feedbackInput.View(),
		renderButton(a.lookup("Submit your assessment"), a.assessment.SubmitEnabled()),
	)
	return strings.Join(lines, "\n")
}

func markRow(row string, current bool) string {
	if current {
		return cursorRowStyle.Render("› " + row)
	}
	return "  " + row
}

func (a *App) renderGrade() string {
	f := a.grade.Fragment()
	if f == nil {
		return detailTextStyle.Render(a.lookup("Loading…"))
	}
	return detailTextStyle.Render(f.Text())
}

func (a *App) renderModal(width int) string {
	text := lipgloss.NewStyle().Width(max(20, min(width-8, 72))).Render(a.modal.prompt)
	hint := detailTextStyle.Render(a.lookup("y → submit    n → cancel"))
	return modalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, text, "", hint))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return sectionStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}
