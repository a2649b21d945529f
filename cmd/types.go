package cmd

import "github.com/blacktop/imagine/internal/history"

type tuiConfig struct {
	DisplayProtocol string // kitty or iterm
	OutputFolder    string
	OpenAfterSave   bool
}

// focus is the control that receives keys in the main view.
type focus int

const (
	focusPrompt focus = iota
	focusStyle
	focusAspect
	focusCount
)

// messages returned by tea.Cmds

type generatedMsg struct{ record history.Record }

type upscaledMsg struct{ record history.Record }

// opFailedMsg carries a failed generate/upscale; the machine already holds
// the user-facing message.
type opFailedMsg struct{ err error }

type savedMsg struct{ path string }

type statusMsg string
