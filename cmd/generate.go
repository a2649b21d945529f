package cmd

import (
	"fmt"
	"time"

	"github.com/blacktop/imagine/internal/download"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var upscaleAfter bool

// generateCmd runs one generation without the TUI.
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate an image and save it without the TUI",
	Example: `  imagine generate "a red fox in the snow" --style anime --aspect 16:9
  imagine generate -p "a lighthouse at dusk" --upscale -o ./out --open`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			prompt = args[0]
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		a.machine.SetPrompt(prompt)
		logger.Info("Generating image", "style", cfg.Style, "aspect", cfg.AspectRatio)
		rec, err := a.machine.SubmitPrompt(cmd.Context())
		if err != nil {
			return err
		}
		if upscaleAfter {
			logger.Info("Upscaling image", "id", rec.ID)
			if rec, err = a.machine.RequestUpscale(cmd.Context(), rec); err != nil {
				return err
			}
		}

		path, err := download.Save(cfg.OutputFolder, rec, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Image saved: %s\n", path)
		if openAfterSave {
			if err := open.Start(path); err != nil {
				logger.Warn("Could not open image", "path", path, "err", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt for image generation")
	generateCmd.Flags().BoolVarP(&upscaleAfter, "upscale", "u", false, "Upscale the image after generating it")
}
