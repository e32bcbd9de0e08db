package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/groupassess/internal/fragment"
	"github.com/kingrea/groupassess/internal/transport"
)

func newRenderCmd(workspace *string) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:       "render <fragment>",
		Short:     "Print a rendered section as plain text",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{transport.FragmentSubmission, transport.FragmentAssessment, transport.FragmentGrade},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*workspace)
			if err != nil {
				return err
			}
			defer rt.Close()

			markup, err := rt.client.Render(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), markup)
				return nil
			}
			f, err := fragment.Parse(args[0], markup)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Text())
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "html", false, "print the markup instead of plain text")
	return cmd
}
