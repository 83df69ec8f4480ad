// cmd/storyctl/characters.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

func newCharactersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"chars"},
		Short:   "List, add and remove characters",
	}
	cmd.AddCommand(
		newCharactersListCmd(c),
		newCharactersAddCmd(c),
		newCharactersRemoveCmd(c),
	)
	return cmd
}

func newCharactersListCmd(c *cli) *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := c.openCharacters(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var list []models.Character
			switch order {
			case "created":
				list, err = svc.ListForLibrary(ctx)
			case "name":
				list, err = svc.ListForComposer(ctx)
			default:
				return fmt.Errorf("unknown order %q (want created or name)", order)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No characters yet.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tPROFILE")
			for _, ch := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ch.ID, ch.Name,
					ch.CreatedAt.Format("2006-01-02 15:04"), firstLine(ch.Profile, 60))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&order, "order", "created", "Sort order: created or name")
	return cmd
}

func newCharactersAddCmd(c *cli) *cobra.Command {
	var in models.CharacterInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a character",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := c.openCharacters(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ch, err := svc.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ch.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Character name")
	cmd.Flags().StringVarP(&in.Profile, "profile", "p", "", "Character profile")
	return cmd
}

func newCharactersRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove characters by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := c.openCharacters(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := svc.Delete(ctx, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return nil
		},
	}
}

// firstLine 截取简介第一行用于表格显示
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
