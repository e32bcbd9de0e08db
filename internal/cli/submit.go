package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/groupassess/internal/group"
)

func newSubmitCmd(workspace *string) *cobra.Command {
	var (
		order int
		text  string
		yes   bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one part of the group response",
		Long: "Submit one part of the group response. The text comes from --text or, " +
			"when omitted, from stdin (which then requires --yes).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStdin := !cmd.Flags().Changed("text")
			if fromStdin {
				if !yes {
					return errors.New("reading the response from stdin requires --yes")
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read response: %w", err)
				}
				text = string(data)
			}
			return runSubmit(cmd, *workspace, text, order, yes)
		},
	}
	cmd.Flags().IntVar(&order, "order", 0, "response part to submit (default: the part the course asks for next)")
	cmd.Flags().StringVar(&text, "text", "", "response text")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runSubmit(cmd *cobra.Command, workspace, text string, order int, yes bool) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("the response is empty")
	}
	rt, err := openRuntime(workspace)
	if err != nil {
		return err
	}
	defer rt.Close()

	var confirmer group.Confirmer = group.AutoConfirm(true)
	if !yes {
		confirmer = group.NewPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	ctx := cmd.Context()
	s, err := rt.session(ctx, confirmer)
	if err != nil {
		return err
	}
	if s.LoadError(group.RegionResponse) {
		return rt.loadError(group.RegionResponse)
	}
	if order <= 0 {
		order = s.Response.Ordinal()
	}
	s.Response.SetText(text)
	s.Response.OnResponseChanged()
	if err := group.Drive(ctx, s, s.Response.Submit(text, order)); err != nil {
		return err
	}

	switch {
	case s.Response.Advances() > 0:
		fmt.Fprintf(cmd.OutOrStdout(), "Response part %d submitted.\n", order)
		return nil
	case s.Response.State() == group.ResponseAborted:
		fmt.Fprintln(cmd.ErrOrStderr(), "Submission cancelled.")
		return nil
	}
	if msg, ok := s.ActionError(group.ScopeResponse); ok {
		return errors.New(msg)
	}
	return errors.New("the response was not submitted")
}
