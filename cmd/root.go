/*
Copyright © 2024-2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"io"
	"os"

	"github.com/blacktop/imagine/internal/catalog"
	"github.com/blacktop/imagine/internal/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// flags
	logger        *log.Logger
	verbose       bool
	apiToken      string
	imageModel    string
	upscaleModel  string
	historyDB     string
	prompt        string
	style         string
	aspectRatio   string
	outputFolder  string
	displayProto  string
	logFile       string
	openAfterSave bool
	// resolved in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "imagine",
	Short:         "Imagen text-to-image TUI",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		cfg = resolveConfig(cmd)
		return cfg.Validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		// the alt screen owns the terminal; logs go to a file or nowhere
		if logFile != "" || verbose {
			if logFile == "" {
				logFile = "imagine.log"
			}
			f, err := tea.LogToFile(logFile, "imagine")
			if err != nil {
				return err
			}
			defer f.Close()
			logger.SetOutput(f)
		} else {
			logger.SetOutput(io.Discard)
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()
		a.machine.SetPrompt(prompt)

		p := tea.NewProgram(newModel(cmd.Context(), a.machine, &tuiConfig{
			DisplayProtocol: cfg.DisplayProtocol,
			OutputFolder:    cfg.OutputFolder,
			OpenAfterSave:   openAfterSave,
		}), tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			logger.Error("Error running program", "err", err)
			return err
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("imagine failed", "err", err)
		os.Exit(1)
	}
}

// resolveConfig layers flags over .env and the environment.
func resolveConfig(cmd *cobra.Command) *config.Config {
	c := config.Load()
	if apiToken != "" {
		c.APIKey = apiToken
	}
	flags := cmd.Flags()
	if flags.Changed("model") {
		c.ImageModel = imageModel
	}
	if flags.Changed("upscale-model") {
		c.UpscaleModel = upscaleModel
	}
	if flags.Changed("history") {
		c.HistoryDB = historyDB
	}
	if flags.Changed("display") {
		c.DisplayProtocol = displayProto
	}
	c.Style = style
	c.AspectRatio = aspectRatio
	c.OutputFolder = outputFolder
	return c
}

func init() {
	// Override the default error level style.
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR!!").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("204")).
		Foreground(lipgloss.Color("0"))
	// Add a custom style for key `err`
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	logger = log.New(os.Stderr)
	logger.SetStyles(styles)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "V", false, "Verbose output")
	pf.StringVarP(&apiToken, "api-token", "t", "", "Gemini API key (overrides GEMINI_API_KEY env_var)")
	pf.StringVarP(&imageModel, "model", "m", "", "Image generation model (overrides IMAGEN_MODEL)")
	pf.StringVar(&upscaleModel, "upscale-model", "", "Upscale model (overrides IMAGEN_UPSCALE_MODEL)")
	pf.StringVar(&historyDB, "history", "", "History database path (overrides IMAGEN_HISTORY_DB)")
	pf.StringVarP(&style, "style", "s", catalog.DefaultStyle, "Style preset (see `imagine styles`)")
	pf.StringVarP(&aspectRatio, "aspect", "a", catalog.DefaultAspectRatio, "Aspect ratio of the image (1:1, 16:9, 9:16, 4:3, 3:4)")
	pf.StringVarP(&outputFolder, "output", "o", "", "Output folder for saved images")
	pf.BoolVar(&openAfterSave, "open", false, "Open images after saving them")
	rootCmd.MarkPersistentFlagDirname("output")

	rootCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Initial prompt")
	rootCmd.Flags().StringVarP(&displayProto, "display", "d", "", "Inline image protocol (kitty or iterm)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the TUI runs")
}
