package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"opsconsole/internal/infra/httpserver"
	"opsconsole/internal/infra/notification"
	"opsconsole/internal/inventory"
	"opsconsole/internal/shared_kernel/domain"
)

const (
	detailInvalidCredentials = "Invalid credentials."
	detailInvalidOTP         = "Invalid OTP"
	detailOTPSent            = "OTP sent to your email."
	detailInvalidToken       = "Given token not valid for any token type"
	detailNotFound           = "Not found."
	detailUnknownTenant      = "Unknown tenant."
	detailRequired           = "This field is required."
	detailMailFailed         = "Could not send the verification code."
	detailInvalidPage        = "limit and offset must be non-negative integers."

	totalCountHeader = "X-Total-Count"
)

type claimsKey struct{}

// Controller serves the tenant API the console talks to, backed by the
// sandbox store.
type Controller struct {
	store   *Store
	issuer  *Issuer
	mailer  notification.EmailSender
	otp     string
	tenants []string
	now     func() time.Time
}

var _ httpserver.Controller = (*Controller)(nil)

func NewController(store *Store, issuer *Issuer, mailer notification.EmailSender, cfg Config) *Controller {
	otp := cfg.OTP
	if otp == "" {
		otp = DefaultOTP
	}
	return &Controller{
		store:   store,
		issuer:  issuer,
		mailer:  mailer,
		otp:     otp,
		tenants: cfg.Tenants,
		now:     issuer.now,
	}
}

func (c *Controller) AddRoutes(router *http.ServeMux) {
	router.Handle("POST /{tenant}/api/auth/login/", c.knownTenant(c.login()))
	router.Handle("POST /{tenant}/api/auth/verify-otp/", c.knownTenant(c.verifyOTP()))
	router.Handle("POST /{tenant}/api/auth/resend-otp/", c.knownTenant(c.resendOTP()))
	router.Handle("POST /{tenant}/api/auth/token/refresh/", c.knownTenant(c.refresh()))
	router.Handle("/{tenant}/api/{path...}", c.knownTenant(c.authenticated(c.documents())))
}

func (c *Controller) knownTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !slices.Contains(c.tenants, r.PathValue("tenant")) {
			httpserver.ReplyWithError(w, http.StatusNotFound, detailUnknownTenant)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Controller) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			httpserver.ReplyWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := c.issuer.Verify(token, tokenTypeAccess)
		if err != nil || claims.Tenant != r.PathValue("tenant") {
			httpserver.ReplyJSONResponse(w, http.StatusUnauthorized, tokenError{Detail: detailInvalidToken, Code: "token_not_valid"})
			return
		}

		httpserver.GetSpanFromContext(r).SetAttributes(attribute.String("user.email", claims.Subject))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

type tokenError struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type verifyResponse struct {
	Access        string         `json:"access"`
	Refresh       string         `json:"refresh"`
	Tenant        string         `json:"tenant_schema_name"`
	MultiLocation bool           `json:"multi_location"`
	User          domain.Account `json:"user"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func (c *Controller) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if missing := required(map[string]string{"email": body.Email, "password": body.Password}); missing != nil {
			httpserver.ReplyJSONResponse(w, http.StatusBadRequest, missing)
			return
		}

		_, err := c.store.Authenticate(r.Context(), r.PathValue("tenant"), body.Email, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			httpserver.ReplyWithError(w, http.StatusUnauthorized, detailInvalidCredentials)
			return
		}
		if err != nil {
			c.internalError(w, "authenticating", err)
			return
		}

		c.sendOTP(w, r, body.Email)
	}
}

// sendOTP mails the verification code and answers the request.
func (c *Controller) sendOTP(w http.ResponseWriter, r *http.Request, email string) {
	tenant := r.PathValue("tenant")
	err := c.mailer.SendEmail(r.Context(), notification.EmailRequest{
		To:      email,
		Subject: fmt.Sprintf("Your %s verification code", tenant),
		Body:    fmt.Sprintf("Use %s to finish signing in to %s.", c.otp, tenant),
	})
	if err != nil {
		slog.Error("sending otp", slog.String("tenant", tenant), slog.String("error", err.Error()))
		httpserver.ReplyWithError(w, http.StatusBadGateway, detailMailFailed)
		return
	}

	slog.Info("otp issued", slog.String("tenant", tenant), slog.String("email", email))
	httpserver.ReplyJSONResponse(w, http.StatusOK, detailResponse{Detail: detailOTPSent})
}

func (c *Controller) verifyOTP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body otpRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		tenant := r.PathValue("tenant")
		account, err := c.store.Account(r.Context(), tenant, body.Email)
		if errors.Is(err, ErrInvalidCredentials) || body.OTP != c.otp {
			httpserver.ReplyWithError(w, http.StatusBadRequest, detailInvalidOTP)
			return
		}
		if err != nil {
			c.internalError(w, "loading account", err)
			return
		}

		pair, err := c.issuer.Issue(tenant, account.Email)
		if err != nil {
			c.internalError(w, "issuing tokens", err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, verifyResponse{
			Access:        pair.Access,
			Refresh:       pair.Refresh,
			Tenant:        tenant,
			MultiLocation: account.MultiLocation,
			User: domain.Account{
				ID:          domain.ID(account.UserID),
				Email:       domain.Email(account.Email),
				Tenant:      domain.TenantSchema(tenant),
				Permissions: account.Permissions,
			},
		})
	}
}

func (c *Controller) resendOTP() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body otpRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if missing := required(map[string]string{"email": body.Email}); missing != nil {
			httpserver.ReplyJSONResponse(w, http.StatusBadRequest, missing)
			return
		}
		if _, err := c.store.Account(r.Context(), r.PathValue("tenant"), body.Email); err != nil {
			// unknown addresses get the same answer without an email
			httpserver.ReplyJSONResponse(w, http.StatusOK, detailResponse{Detail: detailOTPSent})
			return
		}
		c.sendOTP(w, r, body.Email)
	}
}

func (c *Controller) refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		claims, err := c.issuer.Verify(body.Refresh, tokenTypeRefresh)
		if err != nil || claims.Tenant != r.PathValue("tenant") {
			httpserver.ReplyJSONResponse(w, http.StatusUnauthorized, tokenError{Detail: "Token is invalid or expired", Code: "token_not_valid"})
			return
		}

		pair, err := c.issuer.Issue(claims.Tenant, claims.Subject)
		if err != nil {
			c.internalError(w, "issuing tokens", err)
			return
		}
		httpserver.ReplyJSONResponse(w, http.StatusOK, pair)
	}
}

func (c *Controller) documents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := r.PathValue("tenant")
		coll, rest, ok := resolveCollection(r.PathValue("path"))
		if !ok || len(rest) > 2 {
			httpserver.ReplyWithError(w, http.StatusNotFound, detailNotFound)
			return
		}

		switch {
		case len(rest) == 0 && r.Method == http.MethodGet:
			c.list(w, r, tenant, coll)
		case len(rest) == 0 && r.Method == http.MethodPost:
			c.create(w, r, tenant, coll)
		case len(rest) == 1 && r.Method == http.MethodGet:
			c.get(w, r, tenant, coll, rest[0])
		case len(rest) == 1 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
			c.update(w, r, tenant, coll, rest[0])
		case len(rest) == 1 && r.Method == http.MethodDelete:
			c.remove(w, r, tenant, coll, rest[0])
		case len(rest) == 2 && r.Method == http.MethodPost:
			c.action(w, r, tenant, coll, rest[0], rest[1])
		default:
			httpserver.ReplyWithError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
		}
	}
}

func (c *Controller) list(w http.ResponseWriter, r *http.Request, tenant, coll string) {
	page, ok := pageOf(r)
	if !ok {
		httpserver.ReplyWithError(w, http.StatusBadRequest, detailInvalidPage)
		return
	}

	docs, total, err := c.store.List(r.Context(), tenant, coll, httpserver.GetQueryParam(r, "search"), page)
	if err != nil {
		c.internalError(w, "listing documents", err)
		return
	}
	w.Header().Set(totalCountHeader, strconv.Itoa(total))
	httpserver.ReplyJSONResponse(w, http.StatusOK, docs)
}

func (c *Controller) get(w http.ResponseWriter, r *http.Request, tenant, coll, id string) {
	doc, err := c.store.Get(r.Context(), tenant, coll, id)
	if errors.Is(err, ErrDocumentNotFound) {
		httpserver.ReplyWithError(w, http.StatusNotFound, detailNotFound)
		return
	}
	if err != nil {
		c.internalError(w, "getting document", err)
		return
	}
	httpserver.ReplyJSONResponse(w, http.StatusOK, doc)
}

func (c *Controller) create(w http.ResponseWriter, r *http.Request, tenant, coll string) {
	var doc Document
	if err := httpserver.DecodeJSONBody(r, &doc); err != nil || doc == nil {
		httpserver.ReplyWithError(w, http.StatusBadRequest, ErrInvalidDocument.Error())
		return
	}
	delete(doc, "id")
	if fields := validateDocument(coll, doc); fields != nil {
		httpserver.ReplyJSONResponse(w, http.StatusBadRequest, fields)
		return
	}
	if hasWorkflow(coll) {
		doc[statusKey] = string(inventory.StatusDraft)
	}

	created, err := c.store.Put(r.Context(), tenant, coll, doc)
	if err != nil {
		c.internalError(w, "creating document", err)
		return
	}
	httpserver.ReplyJSONResponse(w, http.StatusCreated, created)
}

func (c *Controller) update(w http.ResponseWriter, r *http.Request, tenant, coll, id string) {
	var patch Document
	if err := httpserver.DecodeJSONBody(r, &patch); err != nil || patch == nil {
		httpserver.ReplyWithError(w, http.StatusBadRequest, ErrInvalidDocument.Error())
		return
	}

	current, err := c.store.Get(r.Context(), tenant, coll, id)
	if errors.Is(err, ErrDocumentNotFound) {
		httpserver.ReplyWithError(w, http.StatusNotFound, detailNotFound)
		return
	}
	if err != nil {
		c.internalError(w, "getting document", err)
		return
	}

	next := patch
	if r.Method == http.MethodPatch {
		next = current
		for key, value := range patch {
			next[key] = value
		}
	}
	next["id"] = id
	if status, ok := current[statusKey]; ok {
		next[statusKey] = status
	}
	if fields := validateDocument(coll, next); fields != nil {
		httpserver.ReplyJSONResponse(w, http.StatusBadRequest, fields)
		return
	}

	saved, err := c.store.Put(r.Context(), tenant, coll, next)
	if err != nil {
		c.internalError(w, "saving document", err)
		return
	}
	httpserver.ReplyJSONResponse(w, http.StatusOK, saved)
}

func (c *Controller) remove(w http.ResponseWriter, r *http.Request, tenant, coll, id string) {
	err := c.store.Delete(r.Context(), tenant, coll, id)
	if errors.Is(err, ErrDocumentNotFound) {
		httpserver.ReplyWithError(w, http.StatusNotFound, detailNotFound)
		return
	}
	if err != nil {
		c.internalError(w, "deleting document", err)
		return
	}
	httpserver.ReplyJSONResponse(w, http.StatusNoContent, nil)
}

// errShortage aborts the done transaction once the conflicts are known.
var errShortage = errors.New("insufficient stock")

func (c *Controller) action(w http.ResponseWriter, r *http.Request, tenant, coll, id, action string) {
	var (
		updated   Document
		conflicts []Shortage
	)
	err := c.store.Transaction(r.Context(), func(tx *Store) error {
		doc, err := tx.Get(r.Context(), tenant, coll, id)
		if err != nil {
			return err
		}
		if _, err := transit(coll, action, doc); err != nil {
			return err
		}

		if action == inventory.ActionDone && (coll == transfers || coll == scraps) {
			m, err := convert[move](doc)
			if err != nil {
				return fmt.Errorf("decoding %s %s: %w", coll, id, err)
			}
			if conflicts, err = tx.shortages(r.Context(), tenant, m); err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return errShortage
			}
			if err := tx.complete(r.Context(), tenant, coll, m, c.now()); err != nil {
				return err
			}
		}

		updated, err = tx.Put(r.Context(), tenant, coll, doc)
		return err
	})

	switch {
	case errors.Is(err, errShortage):
		httpserver.ReplyJSONResponse(w, http.StatusConflict, conflicts)
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrUnknownAction):
		httpserver.ReplyWithError(w, http.StatusNotFound, detailNotFound)
	case errors.Is(err, ErrInvalidTransition):
		httpserver.ReplyWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrInvalidTransition.Error()+": "))
	case err != nil:
		c.internalError(w, "running action", err)
	default:
		httpserver.ReplyJSONResponse(w, http.StatusOK, updated)
	}
}

func (c *Controller) internalError(w http.ResponseWriter, doing string, err error) {
	slog.Error(doing, slog.String("error", err.Error()))
	httpserver.ReplyWithError(w, http.StatusInternalServerError, "A server error occurred.")
}

// validateDocument applies the server side field checks and returns the
// field errors keyed by name, or nil.
func validateDocument(coll string, doc Document) map[string][]string {
	if coll != transfers {
		return nil
	}
	source, destination := doc.String("source_location"), doc.String("destination_location")
	if source != "" && source == destination {
		return map[string][]string{"destination_location": {inventory.SameLocationMessage}}
	}
	return nil
}

func required(fields map[string]string) map[string][]string {
	var missing map[string][]string
	for name, value := range fields {
		if strings.TrimSpace(value) != "" {
			continue
		}
		if missing == nil {
			missing = map[string][]string{}
		}
		missing[name] = []string{detailRequired}
	}
	return missing
}

// pageOf reads the optional limit and offset query parameters.
func pageOf(r *http.Request) (Page, bool) {
	var page Page
	for name, target := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := httpserver.GetQueryParam(r, name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Page{}, false
		}
		*target = n
	}
	return page, true
}
