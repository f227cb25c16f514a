// Package server exposes the session service over HTTP: one POST
// endpoint accepting an employee profile and a question, answered with a
// server-sent event stream of response, warning, and error events.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/worklaw/counsel/backend"
	"github.com/worklaw/counsel/compose"
	"github.com/worklaw/counsel/executor"
	"github.com/worklaw/counsel/language"
	"github.com/worklaw/counsel/observability"
	"github.com/worklaw/counsel/session"
	"github.com/worklaw/counsel/tokens"
	"github.com/worklaw/counsel/transcript"
)

// AssistantPath is the single conversational endpoint.
const AssistantPath = "/api/hr-legal-assistant"

// Option configures a Service after config-driven initialization.
// Applied by New after cold start — overrides replace config-created
// defaults.
type Option func(*Service)

// WithBackend overrides the config-created backend.
func WithBackend(b backend.Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithStore overrides the config-created transcript store.
func WithStore(store transcript.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithDetector overrides the default heuristic language detector.
func WithDetector(d language.Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithEstimator overrides the default heuristic token estimator.
func WithEstimator(e tokens.Estimator) Option {
	return func(s *Service) { s.estimator = e }
}

// Service wires the session core behind the HTTP surface.
type Service struct {
	cfg       *Config
	backend   backend.Backend
	store     transcript.Store
	observer  observability.Observer
	detector  language.Detector
	estimator tokens.Estimator

	registry *session.Registry
	executor *executor.Executor
}

// New creates a Service from configuration. Subsystems are initialized
// from their respective config sections; functional options applied
// after initialization can override any of them for testing. A missing
// backend configuration is not an error — the service starts and the
// endpoint reports itself unconfigured.
func New(cfg *Config, opts ...Option) (*Service, error) {
	be, err := backend.New(&cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	store, err := transcript.NewStore(&cfg.Transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript store: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		backend:   be,
		store:     store,
		observer:  observability.NewSlogObserver(slog.Default()),
		detector:  language.Heuristic{},
		estimator: tokens.Heuristic{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.backend != nil {
		composer := compose.NewComposer(s.store, s.observer)
		guard := session.NewBudgetGuard(&cfg.Session, s.estimator)
		s.registry = session.NewRegistry(s.backend, session.WithObserver(s.observer))
		s.executor = executor.New(s.backend, s.store, composer, guard, s.estimator,
			executor.WithObserver(s.observer))
	}

	return s, nil
}

// Router builds the gin engine with CORS and the assistant endpoint.
func (s *Service) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), cors.Default())
	engine.POST(AssistantPath, s.handleAssistant)
	return engine
}

// SweepIdle evicts idle sessions using the configured retention window
// and returns the evicted identities. No-op when the backend is not
// configured.
func (s *Service) SweepIdle(now time.Time) []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.SweepIdle(now, s.cfg.Session.MaxIdle())
}

func (s *Service) handleAssistant(c *gin.Context) {
	setSSEHeaders(c.Writer)
	sse, err := newSSEWriter(c.Writer)
	if err != nil {
		c.String(http.StatusInternalServerError, "streaming not supported")
		return
	}

	if s.executor == nil {
		_ = sse.writeRaw("Service not configured")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		_ = sse.writeEvent(event{Error: "invalid request body"})
		return
	}

	parsed := gjson.ParseBytes(body)
	employeeData := parsed.Get("employee_data")
	question := parsed.Get("question")
	if !employeeData.Exists() || !question.Exists() || question.String() == "" {
		c.Status(http.StatusBadRequest)
		_ = sse.writeEvent(event{Error: "Invalid request - employee_data and question are required"})
		return
	}

	id := employeeData.Get("id")
	if !id.Exists() {
		c.Status(http.StatusBadRequest)
		_ = sse.writeEvent(event{Error: "Employee data must contain an 'id' field"})
		return
	}

	ctx := c.Request.Context()
	identity := id.String()

	sess, err := s.registry.GetOrCreate(ctx, identity)
	if err != nil {
		_ = sse.writeEvent(event{Error: "Assistant service unavailable: " + err.Error()})
		return
	}

	profile := profileFromJSON(employeeData)
	languageTag := s.detector.Detect(question.String())

	for frag := range s.executor.Run(ctx, sess, profile, question.String(), languageTag) {
		if ctx.Err() != nil {
			return
		}
		if err := sse.writeEvent(fragmentEvent(frag)); err != nil {
			// Client went away; stop consuming, remaining fragments
			// are discarded by the sequence.
			return
		}
	}
}

// profileFromJSON extracts the employee facts from the schemaless
// employee_data object. Missing fields render as empty strings.
func profileFromJSON(data gjson.Result) compose.EmployeeProfile {
	return compose.EmployeeProfile{
		ID:              data.Get("id").String(),
		FullName:        data.Get("full_name").String(),
		CIN:             data.Get("cin").String(),
		CINDate:         data.Get("cin_date").String(),
		CINPlace:        data.Get("cin_place").String(),
		ContractType:    data.Get("contract_type").String(),
		EmploymentType:  data.Get("employment_type").String(),
		NetSalary:       data.Get("net_salary").String(),
		BrutSalary:      data.Get("brut_salary").String(),
		SeniorityMonths: data.Get("seniority_in_months").String(),
		DateOfStart:     data.Get("date_of_start").String(),
		Profession:      data.Get("profession").String(),
		CNSSNumber:      data.Get("cnss_number").String(),
		MaritalStatus:   data.Get("marital_status").String(),
		Nationality:     data.Get("nationality").String(),
	}
}
