package cmd

import (
	"fmt"

	"github.com/blacktop/imagine/internal/catalog"
	"github.com/spf13/cobra"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List style presets and aspect ratios",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Styles"))
		for _, s := range catalog.Styles() {
			fmt.Fprintf(out, "  %-16s %s\n", s.ID, dimStyle.Render(s.Prefix))
		}
		fmt.Fprintln(out, titleStyle.Render("Aspect ratios"))
		for _, a := range catalog.AspectRatios() {
			fmt.Fprintf(out, "  %-16s %s\n", a.ID, a.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}
