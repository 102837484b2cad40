package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func loginCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.gateway.SignIn(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			e.gateway.SignOut()
			fmt.Println("Signed out")
			return nil
		},
	}
}

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show project and task statistics for the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			e.gateway.Init(ctx)
			u := e.gateway.CurrentUser()
			if u == nil {
				return fmt.Errorf("not signed in, run 'apolo login --email you@example.com'")
			}

			st := e.store.Stats()
			fmt.Printf("Apolo stats for %s\n", u.Email)
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Projects:  %d\n", st.Projects)
			fmt.Printf("  Tasks:     %d (%d completed)\n", st.Tasks, st.Completed)
			fmt.Printf("  Unread:    %d\n", st.Unread)

			if len(st.PerProject) > 0 {
				fmt.Println("\nProjects:")
				for _, p := range st.PerProject {
					label := p.Title
					if p.Archived {
						label += " (archived)"
					}
					fmt.Printf("  %-30s %3d%%  %d/%d\n", label, p.Progress, p.Completed, p.Tasks)
				}
			}

			projects, err := e.db.ProjectCount(ctx)
			if err == nil {
				var total, done int
				total, done, err = e.db.TaskCounts(ctx)
				if err == nil {
					fmt.Printf("\nDatabase: %d projects, %d tasks (%d completed) across all users\n", projects, total, done)
				}
			}
			if err != nil {
				fmt.Printf("\nDatabase: error (%s)\n", err)
			}

			tags, err := e.db.TagCounts(ctx)
			if err != nil {
				fmt.Printf("\nTags: error (%s)\n", err)
				return nil
			}
			if len(tags) > 0 {
				fmt.Println("\nTags:")
				for _, t := range tags {
					fmt.Printf("  %-20s %d\n", t.Name, t.Tasks)
				}
			}
			return nil
		},
	}
}
