package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"opsconsole/internal/console"
	"opsconsole/internal/infra/storage"
	"opsconsole/internal/infra/tenantclient"
	"opsconsole/internal/resource"
	"opsconsole/internal/session"
	"opsconsole/internal/shared_kernel/domain"
)

const (
	LoginPath     = "/auth/login/"
	VerifyOTPPath = "/auth/verify-otp/"
	ResendOTPPath = "/auth/resend-otp/"

	InvalidOTPMessage = "Invalid OTP"
	OTPSentMessage    = "A verification code has been sent to your email."
	ResendFailed      = "Could not resend the code. Please try again."
)

var (
	ErrNoTenant  = errors.New("auth flow requires a tenant")
	ErrNoStorage = errors.New("auth flow requires a storage")
)

type Stage int

const (
	StageCredentials Stage = iota
	StageOTP
	StageSignedIn
)

func (s Stage) String() string {
	switch s {
	case StageOTP:
		return "otp"
	case StageSignedIn:
		return "signed-in"
	default:
		return "credentials"
	}
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type VerifyResponse struct {
	Access           string          `json:"access"`
	Refresh          string          `json:"refresh"`
	TenantSchemaName string          `json:"tenant_schema_name"`
	MultiLocation    bool            `json:"multi_location"`
	User             *domain.Account `json:"user,omitempty"`
}

// Session is the outcome of a successful OTP verification.
type Session struct {
	Tenant        domain.TenantSchema
	Tokens        domain.TokenPair
	Account       *domain.Account
	MultiLocation bool
	ExpiresAt     time.Time
}

var messages = map[string]string{
	"email.required":    "Email is required",
	"email.email":       "Enter a valid email address",
	"password.required": "Password is required",
	"otp.required":      "Enter the verification code",
	"otp.len":           "The verification code has 6 digits",
	"otp.numeric":       "The verification code has 6 digits",
}

// Flow drives login, OTP verification and logout for one tenant.
type Flow struct {
	mu        sync.Mutex
	cfg       tenantclient.Config
	tenant    domain.TenantSchema
	store     storage.Storage
	navigator console.Navigator
	requester tenantclient.Requester
	options   []tenantclient.Option
	now       func() time.Time

	stage   Stage
	email   string
	message string
}

func NewFlowBuilder() *flowBuilder {
	return &flowBuilder{}
}

type flowBuilder struct {
	actions []flowHandler
}

type flowHandler func(f *Flow) error

func (b *flowBuilder) WithConfig(cfg tenantclient.Config) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.cfg = cfg
		return nil
	})
	return b
}

func (b *flowBuilder) WithTenant(tenant domain.TenantSchema) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		if err := tenant.Validate(); err != nil {
			return err
		}
		f.tenant = tenant
		return nil
	})
	return b
}

func (b *flowBuilder) WithStorage(store storage.Storage) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.store = store
		return nil
	})
	return b
}

func (b *flowBuilder) WithNavigator(navigator console.Navigator) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.navigator = navigator
		return nil
	})
	return b
}

// WithRequester replaces the anonymous tenant client used for auth calls.
func (b *flowBuilder) WithRequester(requester tenantclient.Requester) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.requester = requester
		return nil
	})
	return b
}

// WithClientOptions are applied to every tenant client the flow builds.
func (b *flowBuilder) WithClientOptions(opts ...tenantclient.Option) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.options = append(f.options, opts...)
		return nil
	})
	return b
}

func (b *flowBuilder) WithNow(now func() time.Time) *flowBuilder {
	b.actions = append(b.actions, func(f *Flow) error {
		f.now = now
		return nil
	})
	return b
}

func (b *flowBuilder) Build() (*Flow, error) {
	result := &Flow{now: time.Now}
	for _, action := range b.actions {
		if err := action(result); err != nil {
			return nil, err
		}
	}
	if result.tenant == "" {
		return nil, ErrNoTenant
	}
	if result.store == nil {
		return nil, ErrNoStorage
	}
	if result.navigator == nil {
		result.navigator = &console.History{}
	}
	if result.requester == nil {
		client, err := tenantclient.NewAnonymous(result.cfg, result.tenant, result.options...)
		if err != nil {
			return nil, fmt.Errorf("building auth client: %w", err)
		}
		result.requester = client
	}
	return result, nil
}

func (f *Flow) Tenant() domain.TenantSchema {
	return f.tenant
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Message is the user-visible status of the last step.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Login submits the credentials; the server answers by emailing an OTP.
func (f *Flow) Login(ctx context.Context, email, password string) error {
	input := Credentials{Email: email, Password: password}
	if err := resource.Validate(input, messages).OrNil(); err != nil {
		f.setMessage(resource.Message(err))
		return err
	}

	if err := f.requester.Do(ctx, http.MethodPost, LoginPath, nil, input, nil); err != nil {
		slog.Error("logging in", slog.String("tenant", f.tenant.String()), slog.String("error", err.Error()))
		f.setMessage(resource.Message(err))
		return fmt.Errorf("logging in: %w", err)
	}

	f.mu.Lock()
	f.stage = StageOTP
	f.email = email
	f.message = OTPSentMessage
	f.mu.Unlock()
	return nil
}

// VerifyOTP exchanges the code for tokens, persists them and opens the
// tenant dashboard. A rejected code sets InvalidOTPMessage and stays put.
func (f *Flow) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	input := OTPRequest{Email: email, OTP: code}
	if err := resource.Validate(input, messages).OrNil(); err != nil {
		f.setMessage(resource.Message(err))
		return nil, err
	}

	var resp VerifyResponse
	if err := f.requester.Do(ctx, http.MethodPost, VerifyOTPPath, nil, input, &resp); err != nil {
		if errors.Is(err, tenantclient.ErrBadRequest) {
			f.setMessage(InvalidOTPMessage)
		} else {
			f.setMessage(resource.Message(err))
		}
		return nil, fmt.Errorf("verifying otp: %w", err)
	}

	s := &Session{
		Tenant:        f.tenant,
		Tokens:        domain.TokenPair{Access: resp.Access, Refresh: resp.Refresh},
		Account:       resp.User,
		MultiLocation: resp.MultiLocation,
	}
	if resp.TenantSchemaName != "" {
		s.Tenant = domain.TenantSchema(resp.TenantSchemaName)
	}
	if !s.Tokens.IsComplete() || s.Tenant.Validate() != nil {
		f.setMessage(resource.Message(tenantclient.ErrNotReady))
		return nil, fmt.Errorf("verifying otp: incomplete answer: %w", tenantclient.ErrNotReady)
	}
	if exp, ok := TokenExpiry(s.Tokens.Access); ok {
		s.ExpiresAt = exp
	}

	if err := f.persist(ctx, s); err != nil {
		f.setMessage(resource.Message(err))
		return nil, err
	}

	f.mu.Lock()
	f.stage = StageSignedIn
	f.email = email
	f.message = ""
	f.mu.Unlock()

	slog.Info("signed in", slog.String("tenant", s.Tenant.String()))
	f.navigator.Navigate(console.Dashboard(s.Tenant))
	return s, nil
}

// ResendOTP asks for a new code. Failures only change the message.
func (f *Flow) ResendOTP(ctx context.Context, email string) {
	body := map[string]string{"email": email}
	if err := f.requester.Do(ctx, http.MethodPost, ResendOTPPath, nil, body, nil); err != nil {
		slog.Warn("resending otp", slog.String("error", err.Error()))
		f.setMessage(ResendFailed)
		return
	}
	f.setMessage(OTPSentMessage)
}

// Logout clears the stored credentials and returns to the login page.
func (f *Flow) Logout(ctx context.Context) error {
	err := session.ClearCredentials(ctx, f.store)
	if err != nil {
		slog.Error("clearing credentials", slog.String("error", err.Error()))
	}

	f.mu.Lock()
	f.stage = StageCredentials
	f.email = ""
	f.message = ""
	f.mu.Unlock()

	f.navigator.Navigate(console.Login(f.tenant))
	return err
}

// Restore builds a tenant client from stored credentials. It returns
// tenantclient.ErrNotReady when there is no usable session.
func (f *Flow) Restore(ctx context.Context) (*tenantclient.Client, error) {
	tenant, found, err := storage.GetJSON[domain.TenantSchema](ctx, f.store, storage.KeyTenantSchemaName)
	if err != nil {
		return nil, fmt.Errorf("restoring tenant: %w", err)
	}
	if !found {
		tenant = f.tenant
	}

	access, _, err := storage.GetJSON[string](ctx, f.store, storage.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("restoring access token: %w", err)
	}
	refresh, _, err := storage.GetJSON[string](ctx, f.store, storage.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("restoring refresh token: %w", err)
	}

	if Expired(refresh, f.now()) {
		return nil, fmt.Errorf("refresh token expired: %w", tenantclient.ErrNotReady)
	}

	opts := append([]tenantclient.Option{}, f.options...)
	opts = append(opts, tenantclient.WithTokenListener(f.tokenListener(ctx)))
	client, err := tenantclient.New(f.cfg, tenant, domain.TokenPair{Access: access, Refresh: refresh}, opts...)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.stage = StageSignedIn
	f.mu.Unlock()
	return client, nil
}

// tokenListener persists rotated tokens so other instances pick them up.
func (f *Flow) tokenListener(ctx context.Context) tenantclient.TokenListener {
	ctx = context.WithoutCancel(ctx)
	return func(tokens domain.TokenPair) {
		if err := f.persistTokens(ctx, tokens); err != nil {
			slog.Error("persisting refreshed tokens", slog.String("error", err.Error()))
		}
	}
}

func (f *Flow) persist(ctx context.Context, s *Session) error {
	if err := f.persistTokens(ctx, s.Tokens); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, f.store, storage.KeyTenantSchemaName, s.Tenant); err != nil {
		return fmt.Errorf("storing tenant: %w", err)
	}
	if err := storage.SetJSON(ctx, f.store, storage.KeyMultiLocation, s.MultiLocation); err != nil {
		return fmt.Errorf("storing multi location flag: %w", err)
	}
	return nil
}

func (f *Flow) persistTokens(ctx context.Context, tokens domain.TokenPair) error {
	if err := storage.SetJSON(ctx, f.store, storage.KeyAccessToken, tokens.Access); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	if err := storage.SetJSON(ctx, f.store, storage.KeyRefreshToken, tokens.Refresh); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

func (f *Flow) setMessage(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = message
}
