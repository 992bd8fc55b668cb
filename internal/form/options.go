package form

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"opsconsole/internal/infra/cache"
	"opsconsole/internal/infra/utils"
	"opsconsole/internal/resource"
	"opsconsole/internal/shared_kernel/domain"
)

// Option is one autocomplete choice, usually the JSON form of a record.
type Option map[string]any

func (o Option) String(property string) string {
	return utils.ExtractStringValue(map[string]any(o), property)
}

type OptionSource interface {
	Options(ctx context.Context) ([]Option, error)
}

type Loader func(ctx context.Context) ([]Option, error)

type StaticOptions []Option

func (s StaticOptions) Options(context.Context) ([]Option, error) {
	return s, nil
}

// FromProvider lists records through a provider and turns them into options.
func FromProvider[T domain.Resource](provider *resource.Provider[T]) Loader {
	return func(ctx context.Context) ([]Option, error) {
		items, err := provider.List(ctx, "")
		if err != nil {
			return nil, err
		}
		return ToOptions(items)
	}
}

func ToOptions[T any](items []T) ([]Option, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}
	var options []Option
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}
	return options, nil
}

// CachedOptions keeps the loaded options in a shared cache for ttl.
type CachedOptions struct {
	key    string
	ttl    time.Duration
	loader Loader
	cache  cache.Cache[[]Option]
}

var _ OptionSource = (*CachedOptions)(nil)

func NewCachedOptions(key string, loader Loader, c cache.Cache[[]Option], ttl time.Duration) *CachedOptions {
	return &CachedOptions{key: key, ttl: ttl, loader: loader, cache: c}
}

func (o *CachedOptions) Key() string {
	return o.key
}

func (o *CachedOptions) Options(ctx context.Context) ([]Option, error) {
	return o.cache.GetOrLoad(ctx, o.key, o.ttl, func(ctx context.Context) ([]Option, error) {
		return o.loader(ctx)
	})
}

// Refresh reloads the options and replaces the cached entry.
func (o *CachedOptions) Refresh(ctx context.Context) error {
	options, err := o.loader(ctx)
	if err != nil {
		return fmt.Errorf("refreshing %s options: %w", o.key, err)
	}
	o.cache.Set(ctx, o.key, options, o.ttl)
	slog.Debug("options refreshed", slog.String("key", o.key), slog.Int("count", len(options)))
	return nil
}

// Search returns the options whose label contains term, case-insensitively.
func Search(ctx context.Context, source OptionSource, label, term string) ([]Option, error) {
	options, err := source.Options(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return options, nil
	}

	term = strings.ToLower(term)
	var matches []Option
	for _, option := range options {
		if strings.Contains(strings.ToLower(option.String(label)), term) {
			matches = append(matches, option)
		}
	}
	return matches, nil
}

// Find returns the option whose value property equals value.
func Find(ctx context.Context, source OptionSource, property, value string) (Option, bool, error) {
	options, err := source.Options(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, option := range options {
		if option.String(property) == value {
			return option, true, nil
		}
	}
	return nil, false, nil
}
