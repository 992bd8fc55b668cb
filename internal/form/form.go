package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoHandler  = errors.New("no handler for action")
	ErrSubmitting = errors.New("form is already submitting")
)

// Handler receives the form state on save or submit.
type Handler func(ctx context.Context, state *FormState) error

// BasicInfo draws the caller-specific header section and writes through set.
type BasicInfo func(state *FormState, set func(key string, value any))

// Form composes a caller-supplied basic-info section with the item table.
type Form struct {
	Title string
	State *FormState
	Table *Table

	basicInfo    BasicInfo
	onSave       Handler
	onSubmit     Handler
	onSubmitDone Handler

	mu         sync.Mutex
	submitting bool
}

func NewFormBuilder() *formBuilder {
	return &formBuilder{}
}

type formBuilder struct {
	actions []formHandler
}

type formHandler func(f *Form) error

func (b *formBuilder) WithTitle(title string) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		f.Title = title
		return nil
	})
	return b
}

// WithRowConfig checks the config against the item shape before accepting it.
func (b *formBuilder) WithRowConfig(config RowConfig, itemShape any) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		if err := CheckRowConfig(config, itemShape); err != nil {
			return err
		}
		f.Table = NewTable(config, f.State)
		return nil
	})
	return b
}

func (b *formBuilder) WithBasicInfo(basicInfo BasicInfo) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		f.basicInfo = basicInfo
		return nil
	})
	return b
}

func (b *formBuilder) WithOnSave(handler Handler) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		f.onSave = handler
		return nil
	})
	return b
}

func (b *formBuilder) WithOnSubmit(handler Handler) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		f.onSubmit = handler
		return nil
	})
	return b
}

// WithOnSubmitDone wires the approval or mark-as-done path.
func (b *formBuilder) WithOnSubmitDone(handler Handler) *formBuilder {
	b.actions = append(b.actions, func(f *Form) error {
		f.onSubmitDone = handler
		return nil
	})
	return b
}

func (b *formBuilder) Build() (*Form, error) {
	f := &Form{State: NewFormState()}
	for _, a := range b.actions {
		if err := a(f); err != nil {
			return nil, err
		}
	}
	if f.Table == nil {
		return nil, fmt.Errorf("%w: form has no row config", ErrInvalidRowConfig)
	}
	return f, nil
}

// RenderBasicInfo runs the basic-info section against the current state.
func (f *Form) RenderBasicInfo() {
	if f.basicInfo == nil {
		return
	}
	f.basicInfo(f.State, f.State.SetBasic)
}

func (f *Form) HasApproval() bool {
	return f.onSubmitDone != nil
}

func (f *Form) Save(ctx context.Context) error {
	return f.dispatch(ctx, "save", f.onSave)
}

func (f *Form) Submit(ctx context.Context) error {
	return f.dispatch(ctx, "submit", f.onSubmit)
}

// SendForApproval submits through the distinct approval or done callback.
func (f *Form) SendForApproval(ctx context.Context) error {
	return f.dispatch(ctx, "send for approval", f.onSubmitDone)
}

// SubmitDone is the same path as SendForApproval for entities that complete
// instead of awaiting approval.
func (f *Form) SubmitDone(ctx context.Context) error {
	return f.dispatch(ctx, "submit done", f.onSubmitDone)
}

func (f *Form) dispatch(ctx context.Context, action string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, action)
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	return handler(ctx, f.State)
}
