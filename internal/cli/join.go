package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/groupassess/internal/group"
)

func newJoinCmd(workspace *string) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a project group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*workspace)
			if err != nil {
				return err
			}
			defer rt.Close()
			if !cmd.Flags().Changed("name") {
				name = rt.cfg.Project.Student.Name
			}
			if !cmd.Flags().Changed("email") {
				email = rt.cfg.Project.Student.Email
			}

			ctx := cmd.Context()
			s := group.NewSession(rt.client, group.AutoConfirm(true), rt.groupOptions(ctx)...)
			if err := group.Drive(ctx, s, s.Join.Join(name, email)); err != nil {
				return err
			}
			if !s.Join.Joined() {
				if msg, ok := s.ActionError(group.ScopeJoin); ok {
					return errors.New(msg)
				}
				return errors.New("could not join a group")
			}
			if f := s.Join.Fragment(); f != nil {
				fmt.Fprintln(cmd.OutOrStdout(), f.Text())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name (default: student.name from config)")
	cmd.Flags().StringVar(&email, "email", "", "your email (default: student.email from config)")
	return cmd
}
