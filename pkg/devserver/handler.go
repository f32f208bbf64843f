// Package devserver is a local stand-in for the WFH services: authentication,
// requests, schedule and employee operations backed by a db.Database.
package devserver

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jakechorley/wfh-portal/pkg/db"
	"github.com/jakechorley/wfh-portal/pkg/notify"
)

// Publisher sends confirmation emails
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// Options configures the handler
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
	RateLimit      rate.Limit
	RateBurst      int
}

// Handler serves every stand-in endpoint from one router
type Handler struct {
	opts       Options
	store      db.Database
	files      *FileStorage
	idem       Idempotency
	publisher  Publisher
	validate   *validator.Validate
	translator ut.Translator
	limiter    *rateLimiterStore
	logger     *zap.Logger
	now        func() time.Time

	Mux *chi.Mux
}

// Option sets an optional collaborator
type Option func(*Handler)

// WithIdempotency drops repeated submissions carrying the same Idempotency-Key
func WithIdempotency(idem Idempotency) Option {
	return func(h *Handler) { h.idem = idem }
}

// WithPublisher sends confirmation emails after submissions and reviews
func WithPublisher(p Publisher) Option {
	return func(h *Handler) { h.publisher = p }
}

// NewHandler creates a handler. Call RegisterRoutes before serving.
func NewHandler(opts Options, store db.Database, files *FileStorage, logger *zap.Logger, options ...Option) (*Handler, error) {
	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	h := &Handler{
		opts:       opts,
		store:      store,
		files:      files,
		validate:   validate,
		translator: trans,
		limiter:    newRateLimiterStore(opts.RateLimit, opts.RateBurst),
		logger:     logger,
		now:        time.Now,
		Mux:        chi.NewRouter(),
	}
	for _, o := range options {
		o(h)
	}
	return h, nil
}

// RegisterRoutes mounts every endpoint on h.Mux
func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.rateLimit)

	h.Mux.Post("/authenticate", h.Authenticate)
	h.Mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.successResponse(w, r, "ok", nil)
	})

	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/requests", h.Requests)
		r.Post("/schedule", h.Schedule)
		r.Post("/employees", h.Employees)
	})
}
