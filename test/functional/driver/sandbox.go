package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/infra/notification"
	"opsconsole/internal/infra/sql"
	"opsconsole/internal/sandbox"
)

// Tenant is the tenant every local sandbox is seeded with.
const Tenant = "acme"

// Sandbox is the tenant API the features run against, either started in
// process or reached at an external url.
type Sandbox struct {
	url    string
	server *httptest.Server
	orm    *sql.DB
	once   sync.Once

	mu       sync.Mutex
	requests []string
}

func StartSandbox() (*Sandbox, error) {
	ctx := context.Background()
	orm, err := sql.NewMemoryORM()
	if err != nil {
		return nil, err
	}

	cfg := sandbox.Config{Secret: "functional-secret", Tenants: []string{Tenant}}
	store, err := sandbox.NewSeededStore(ctx, orm, cfg)
	if err != nil {
		orm.Close()
		return nil, err
	}

	s := &Sandbox{orm: orm}
	handler := sandbox.NewServer(store, notification.NewOutbox(), cfg, httpserver.DefaultConfig()).Handler()
	s.server = httptest.NewServer(s.record(handler))
	s.url = s.server.URL
	return s, nil
}

// ExternalSandbox points at a running sandbox binary. Request counts are not
// available in this mode.
func ExternalSandbox(url string) *Sandbox {
	return &Sandbox{url: strings.TrimRight(url, "/")}
}

func (s *Sandbox) URL() string {
	return s.url
}

func (s *Sandbox) BaseURLTemplate() string {
	return s.url + "/{tenant}/api"
}

func (s *Sandbox) External() bool {
	return s.server == nil
}

func (s *Sandbox) Close() {
	s.once.Do(func() {
		if s.server != nil {
			s.server.Close()
		}
		if s.orm != nil {
			s.orm.Close()
		}
	})
}

func (s *Sandbox) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Mark returns a position in the request log for CountSince.
func (s *Sandbox) Mark() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// CountSince counts the requests after mark with the method whose path
// contains fragment.
func (s *Sandbox) CountSince(mark int, method, fragment string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, request := range s.requests[mark:] {
		if strings.HasPrefix(request, method+" ") && strings.Contains(request, fragment) {
			count++
		}
	}
	return count
}
