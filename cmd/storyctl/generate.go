// cmd/storyctl/generate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var draft models.SceneDraft

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose four storyboard prompts for a scene",
		Long: `Compose the four shot prompts for a scene description.

Characters are given by id and appear in alphabetical order. Camera and
lighting must match one of the fixed labels served by
GET /api/storyboard/options; leave them empty to omit.`,
		Example: `  storyctl generate -d "Duel at dawn" --duration 10 --camera Close-up --lighting "Golden Hour"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chars, store, err := c.openCharacters(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			board := services.NewStoryboardService(chars, 0)
			prompts, err := board.Generate(ctx, draft)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range prompts {
				fmt.Fprintf(out, "%d. %s\n", p.Sequence, p.Text)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&draft.Description, "description", "d", "", "Scene description (required)")
	f.IntVar(&draft.Duration, "duration", models.DefaultSceneDuration, "Scene duration in seconds")
	f.StringSliceVar(&draft.CharacterIDs, "character", nil, "Character id to feature (repeatable)")
	f.StringVar(&draft.CameraMovement, "camera", "", "Camera movement label")
	f.StringVar(&draft.LightingStyle, "lighting", "", "Lighting style label")
	return cmd
}
