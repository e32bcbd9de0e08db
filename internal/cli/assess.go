package cli

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/groupassess/internal/group"
	"github.com/kingrea/groupassess/internal/rubric"
)

func newAssessCmd(workspace *string) *cobra.Command {
	var (
		options   []string
		feedback  []string
		overall   string
		continued bool
	)
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score the next group member against the rubric",
		Example: "  groupassess assess --option Ideas=Good --option Content=Excellent \\\n" +
			"    --criterion-feedback Ideas=\"Clear plan\" --feedback \"Great teamwork\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parsePairs(options)
			if err != nil {
				return fmt.Errorf("--option: %w", err)
			}
			notes, err := parsePairs(feedback)
			if err != nil {
				return fmt.Errorf("--criterion-feedback: %w", err)
			}
			return runAssess(cmd, *workspace, selected, notes, overall, continued)
		},
	}
	cmd.Flags().StringArrayVar(&options, "option", nil, "criterion=option selection (repeatable)")
	cmd.Flags().StringArrayVar(&feedback, "criterion-feedback", nil, "criterion=text feedback (repeatable)")
	cmd.Flags().StringVar(&overall, "feedback", "", "overall feedback")
	cmd.Flags().BoolVar(&continued, "continued", false, "only refresh the assessment and grade sections afterwards")
	return cmd
}

type pair struct {
	key, value string
}

func parsePairs(values []string) ([]pair, error) {
	out := make([]pair, 0, len(values))
	for _, raw := range values {
		k, v, ok := strings.Cut(raw, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected criterion=value, got %q", raw)
		}
		out = append(out, pair{key: k, value: strings.TrimSpace(v)})
	}
	return out, nil
}

func runAssess(cmd *cobra.Command, workspace string, selected, notes []pair, overall string, continued bool) error {
	rt, err := openRuntime(workspace)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	s, err := rt.session(ctx, group.AutoConfirm(true))
	if err != nil {
		return err
	}
	if s.LoadError(group.RegionAssessment) {
		return rt.loadError(group.RegionAssessment)
	}
	r, ok := s.Assessment.Rubric().(*rubric.Rubric)
	if !ok {
		if f := s.Assessment.Fragment(); f != nil {
			fmt.Fprintln(cmd.OutOrStdout(), f.Text())
		}
		return errors.New("there is no one to assess right now")
	}
	for _, p := range selected {
		if err := r.Select(p.key, p.value); err != nil {
			return err
		}
	}
	for _, p := range notes {
		if err := r.SetFeedback(p.key, p.value); err != nil {
			return err
		}
	}
	s.Assessment.SetOverallFeedback(overall)

	var submit tea.Cmd
	if continued {
		submit = s.Assessment.SubmitAssessment(group.ContinuedAssessment)
	} else {
		submit = s.Assessment.Assess()
	}
	if submit == nil {
		return fmt.Errorf("score every criterion first; missing: %s", strings.Join(unscored(r), ", "))
	}
	completed := s.Assessment.Completed()
	if err := group.Drive(ctx, s, submit); err != nil {
		return err
	}
	if s.Assessment.Completed() == completed {
		if msg, ok := s.ActionError(group.ScopeAssessment); ok {
			return errors.New(msg)
		}
		return errors.New("the assessment was not submitted")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assessment submitted (%s).\n", s.Assessment.LastStrategy())
	if f := s.Grade.Fragment(); f != nil && !f.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), f.Text())
	}
	return nil
}

func unscored(r *rubric.Rubric) []string {
	var missing []string
	for _, c := range r.Criteria() {
		if _, ok := r.Selected(c.Name); !ok {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
