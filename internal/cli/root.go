package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/groupassess/internal/tui"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	workspace := os.Getenv("GROUPASSESS_WORKSPACE")
	if workspace == "" {
		if cwd, err := os.Getwd(); err == nil {
			workspace = cwd
		}
	}

	cmd := &cobra.Command{
		Use:           "groupassess",
		Short:         "Submit and peer-assess group project work from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, workspace)
		},
	}

	cmd.PersistentFlags().StringVar(&workspace, "workspace", workspace, "directory holding .groupassess/")
	cmd.AddCommand(newSubmitCmd(&workspace))
	cmd.AddCommand(newAssessCmd(&workspace))
	cmd.AddCommand(newJoinCmd(&workspace))
	cmd.AddCommand(newRenderCmd(&workspace))
	return cmd
}

func runTUI(cmd *cobra.Command, workspace string) error {
	rt, err := openRuntime(workspace)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := tui.NewApp(rt.client,
		tui.WithLogbook(rt.journal),
		tui.WithLookup(rt.lookup),
		tui.WithStudent(rt.cfg.Project.Student.Name, rt.cfg.Project.Student.Email),
		tui.WithGroupOptions(rt.groupOptions(cmd.Context())...),
	)
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)
	_, err = p.Run()
	return err
}
