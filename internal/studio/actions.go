package studio

import (
	"context"
	"fmt"

	"github.com/blacktop/imagine/internal/history"
)

// Action is a user intent the Machine consumes.
type Action interface {
	action()
}

type (
	SubmitPrompt   struct{}
	RequestUpscale struct{ Record history.Record }
	ReusePrompt    struct{ Record history.Record }
	ClearHistory   struct{}
	DismissError   struct{}
	SetPrompt      struct{ Prompt string }
	SelectStyle    struct{ ID string }
	SelectAspect   struct{ ID string }
)

func (SubmitPrompt) action()   {}
func (RequestUpscale) action() {}
func (ReusePrompt) action()    {}
func (ClearHistory) action()   {}
func (DismissError) action()   {}
func (SetPrompt) action()      {}
func (SelectStyle) action()    {}
func (SelectAspect) action()   {}

// Dispatch routes an action to the matching method. Network actions block.
func (m *Machine) Dispatch(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case SubmitPrompt:
		_, err := m.SubmitPrompt(ctx)
		return err
	case RequestUpscale:
		_, err := m.RequestUpscale(ctx, a.Record)
		return err
	case ReusePrompt:
		m.ReusePrompt(a.Record)
	case ClearHistory:
		return m.ClearHistory()
	case DismissError:
		m.DismissError()
	case SetPrompt:
		m.SetPrompt(a.Prompt)
	case SelectStyle:
		return m.SelectStyle(a.ID)
	case SelectAspect:
		return m.SelectAspectRatio(a.ID)
	default:
		return fmt.Errorf("unknown action %T", a)
	}
	return nil
}
