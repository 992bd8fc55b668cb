package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"opsconsole/internal/infra/cache"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/shared_kernel/domain"
)

type Method string

const (
	MethodPut   Method = http.MethodPut
	MethodPatch Method = http.MethodPatch
)

// Fields is a partial update keyed by json field name. Only the keys present
// are sent and validated.
type Fields map[string]any

// State is a copy of what a provider currently holds.
type State[T domain.Resource] struct {
	List      []T
	Single    *T
	IsLoading bool
	Error     string
}

type Validator[T any] func(payload T) error

type Option[T domain.Resource] func(*Provider[T])

func WithValidator[T domain.Resource](validate Validator[T]) Option[T] {
	return func(p *Provider[T]) {
		p.validate = validate
	}
}

// WithCache shares the keyed list with other providers of the same entity.
func WithCache[T domain.Resource](items *cache.Keyed[T]) Option[T] {
	return func(p *Provider[T]) {
		p.items = items
	}
}

// Provider holds the cached list and the selected record of one entity kind
// and performs its CRUD calls. It is safe for concurrent use; overlapping
// operations are not sequenced and the response that resolves last wins.
type Provider[T domain.Resource] struct {
	requester tenantclient.Requester
	path      string
	validate  Validator[T]

	mu        sync.Mutex
	items     *cache.Keyed[T]
	single    *T
	inflight  int
	lastError string
	listeners map[int]func(State[T])
	nextID    int
}

func NewProvider[T domain.Resource](requester tenantclient.Requester, path string, opts ...Option[T]) *Provider[T] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	p := &Provider[T]{
		requester: requester,
		path:      path,
		items:     cache.NewKeyed[T](),
		listeners: make(map[int]func(State[T])),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider[T]) Path() string {
	return p.path
}

func (p *Provider[T]) Snapshot() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe calls fn after every state change until the returned func is called.
func (p *Provider[T]) Subscribe(fn func(State[T])) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// List replaces the cached list with the server's answer, in server order.
func (p *Provider[T]) List(ctx context.Context, search string) ([]T, error) {
	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}

	var items []T
	err := p.run(ctx, http.MethodGet, p.path, query, nil, &items, func() {
		p.items.ReplaceAll(items)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Provider[T]) Get(ctx context.Context, id domain.ID) (T, error) {
	var item T
	err := p.run(ctx, http.MethodGet, p.itemPath(id), nil, nil, &item, func() {
		p.single = &item
	})
	if errors.Is(err, tenantclient.ErrNotFound) {
		return item, fmt.Errorf("%s%s: %w", p.path, id, errors.Join(ErrNotFound, err))
	}
	return item, err
}

func (p *Provider[T]) Create(ctx context.Context, payload T) (T, error) {
	var created T
	if err := p.check(payload); err != nil {
		return created, err
	}

	err := p.run(ctx, http.MethodPost, p.path, nil, payload, &created, func() {
		p.items.Put(created)
	})
	return created, err
}

// Update sends payload in full with MethodPut. With MethodPatch only the
// non-zero fields of payload are sent; use Patch to clear a field.
func (p *Provider[T]) Update(ctx context.Context, id domain.ID, payload T, method Method) (T, error) {
	var updated T
	switch method {
	case MethodPut:
	case MethodPatch:
		fields, err := FieldsOf(payload)
		if err != nil {
			return updated, err
		}
		return p.Patch(ctx, id, fields)
	default:
		return updated, fmt.Errorf("unsupported update method %q", method)
	}
	if err := p.check(payload); err != nil {
		return updated, err
	}

	err := p.run(ctx, string(method), p.itemPath(id), nil, payload, &updated, func() {
		p.replace(updated)
	})
	return updated, err
}

// Patch sends fields as a partial update. Validation failures outside the
// given keys are ignored.
func (p *Provider[T]) Patch(ctx context.Context, id domain.ID, fields Fields) (T, error) {
	var updated T
	if len(fields) == 0 {
		return updated, ErrEmptyPatch
	}
	if err := p.checkPartial(fields); err != nil {
		return updated, err
	}

	err := p.run(ctx, http.MethodPatch, p.itemPath(id), nil, fields, &updated, func() {
		p.replace(updated)
	})
	return updated, err
}

func (p *Provider[T]) Delete(ctx context.Context, id domain.ID) error {
	return p.run(ctx, http.MethodDelete, p.itemPath(id), nil, nil, nil, func() {
		p.items.Remove(id)
		if p.single != nil && (*p.single).ResourceID() == id {
			p.single = nil
		}
	})
}

// Action posts a workflow transition such as send-for-approval or approve.
func (p *Provider[T]) Action(ctx context.Context, id domain.ID, action string) (T, error) {
	var updated T
	target := p.itemPath(id) + strings.Trim(action, "/") + "/"
	err := p.run(ctx, http.MethodPost, target, nil, map[string]any{}, &updated, func() {
		if updated.ResourceID() == "" {
			return
		}
		p.replace(updated)
	})
	return updated, err
}

func (p *Provider[T]) check(payload T) error {
	if p.validate == nil {
		return nil
	}
	return p.validate(payload)
}

func (p *Provider[T]) checkPartial(fields Fields) error {
	if p.validate == nil {
		return nil
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			invalid := NewValidationError()
			invalid.Add(typeErr.Field, fmt.Sprintf("%s is invalid", typeErr.Field))
			return invalid
		}
		return fmt.Errorf("decoding patch: %w", err)
	}

	err = p.validate(payload)
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		return err
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	return invalid.Only(keys...).OrNil()
}

// FieldsOf lists the top-level json fields of payload that hold a non-zero value.
func FieldsOf(payload any) (Fields, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}

	fields := Fields{}
	for key, value := range all {
		if !isZero(value) {
			fields[key] = value
		}
	}
	return fields, nil
}

func isZero(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func (p *Provider[T]) itemPath(id domain.ID) string {
	return p.path + url.PathEscape(id.String()) + "/"
}

// replace must be called with mu held.
func (p *Provider[T]) replace(item T) {
	if _, ok := p.items.Get(item.ResourceID()); ok {
		p.items.Put(item)
	}
	p.single = &item
}

// run wraps one request with the loading counter and applies commit on success.
// Nothing is written when ctx was cancelled before the response was handled.
func (p *Provider[T]) run(ctx context.Context, method, path string, query url.Values, body, out any, commit func()) error {
	if p.requester == nil {
		return ErrNoClient
	}

	p.begin()
	err := p.requester.Do(ctx, method, path, query, body, out)

	p.mu.Lock()
	p.inflight--
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case err != nil:
		p.lastError = Message(err)
		slog.Error("resource request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
	default:
		p.lastError = ""
		commit()
	}
	state, listeners := p.snapshotLocked(), p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, state)
	return err
}

func (p *Provider[T]) begin() {
	p.mu.Lock()
	p.inflight++
	state, listeners := p.snapshotLocked(), p.listenersLocked()
	p.mu.Unlock()
	notify(listeners, state)
}

func (p *Provider[T]) snapshotLocked() State[T] {
	state := State[T]{
		List:      p.items.List(),
		IsLoading: p.inflight > 0,
		Error:     p.lastError,
	}
	if p.single != nil {
		single := *p.single
		state.Single = &single
	}
	return state
}

func (p *Provider[T]) listenersLocked() []func(State[T]) {
	out := make([]func(State[T]), 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

func notify[T domain.Resource](listeners []func(State[T]), state State[T]) {
	for _, fn := range listeners {
		fn(state)
	}
}
