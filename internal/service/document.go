package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/form"
	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/quota"
	"github.com/autodoc/autodoc/internal/render"
	"github.com/autodoc/autodoc/internal/repository"
)

// RecentDocuments is the number of documents shown on a dashboard.
const RecentDocuments = 5

// fallbackName names the subject of a document when nothing else does.
const fallbackName = "Usuário"

// Rejection reasons reported to metrics.
const (
	rejectQuota      = "quota"
	rejectValidation = "validation"
	rejectRender     = "render"
)

// DocumentConfig holds quota settings for DocumentService.
type DocumentConfig struct {
	Gate quota.Gate
	// Location defines calendar months for the quota. Nil means UTC.
	Location *time.Location
}

// DocumentService handles document generation and lifecycle.
type DocumentService struct {
	docs     DocumentStore
	users    UserStore
	counts   QuotaCache
	renderer render.Renderer
	gate     quota.Gate
	loc      *time.Location
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	docs DocumentStore,
	users UserStore,
	counts QuotaCache,
	renderer render.Renderer,
	cfg DocumentConfig,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *DocumentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Gate.Limit <= 0 {
		cfg.Gate = quota.NewGate(quota.DefaultFreeLimit)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &DocumentService{
		docs:     docs,
		users:    users,
		counts:   counts,
		renderer: renderer,
		gate:     cfg.Gate,
		loc:      cfg.Location,
		metrics:  recorder,
		logger:   logger.With("component", "document_service"),
		now:      time.Now,
	}
}

// Types returns the document type catalog in display order.
func (s *DocumentService) Types() []model.DocumentTypeConfig {
	return model.DocumentTypes()
}

// Type returns one document type.
func (s *DocumentService) Type(key string) (*model.DocumentTypeConfig, error) {
	cfg, ok := model.LookupDocumentType(strings.TrimSpace(key))
	if !ok {
		return nil, ErrUnknownDocumentType
	}
	return cfg, nil
}

// FormatInput is one keystroke of a masked field.
type FormatInput struct {
	Type     string
	Field    string
	Previous string
	Value    string
}

// Format applies a field's input mask to the value being typed.
func (s *DocumentService) Format(input FormatInput) (string, error) {
	cfg, err := s.Type(input.Type)
	if err != nil {
		return "", err
	}
	field, ok := cfg.Field(input.Field)
	if !ok {
		return "", ErrUnknownField
	}
	return form.Mask(field, input.Previous, input.Value), nil
}

// GenerateInput defines input for generating a document.
type GenerateInput struct {
	Type        string
	Title       string
	FormData    map[string]string
	CreatorName string
}

// Generate validates a form, enforces the monthly quota, renders the
// document and stores it with status generated.
func (s *DocumentService) Generate(ctx context.Context, session *model.Session, input GenerateInput) (*model.Document, error) {
	cfg, err := s.Type(input.Type)
	if err != nil {
		return nil, err
	}

	values := form.Normalize(cfg, input.FormData)
	if errs := form.Validate(cfg.Fields, values); errs != nil {
		s.metrics.IncGenerationRejected(rejectValidation)
		return nil, &ValidationError{Fields: errs}
	}

	now := s.now()
	count, err := s.monthlyCount(ctx, session.UserID, now)
	if err != nil {
		return nil, err
	}
	if !s.gate.Allowed(session.Plan, count) {
		s.metrics.IncGenerationRejected(rejectQuota)
		return nil, ErrQuotaExceeded
	}

	started := time.Now()
	html, err := s.renderer.Render(ctx, render.Request{Config: cfg, FormData: values, Date: now.In(s.loc)})
	s.metrics.ObserveRenderDuration(time.Since(started))
	if err != nil {
		s.metrics.IncGenerationRejected(rejectRender)
		s.logger.ErrorContext(ctx, "document render failed", "type", cfg.Key, "user_id", session.UserID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	creator := strings.TrimSpace(input.CreatorName)
	if creator == "" {
		creator = session.FullName
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultTitle(cfg, values, creator)
	}

	created := now.UTC()
	doc := &model.Document{
		ID:             newID(created),
		Type:           cfg.Key,
		Title:          title,
		FormData:       values,
		HTMLContent:    html,
		Status:         model.StatusGenerated,
		CreatorName:    creator,
		CreatedBy:      session.UserID,
		CreatedByEmail: session.Email,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	doc.ArtifactPath = model.ArtifactPathFor(doc.ID)

	start, end := quota.MonthBounds(now, s.loc)
	window := repository.QuotaWindow{Start: start, End: end}
	if session.Plan != model.PlanPro {
		window.Limit = s.gate.Limit
	}

	err = s.docs.CreateDocumentWithinQuota(ctx, doc, window)
	s.forgetCount(ctx, session.UserID, now)
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			s.metrics.IncGenerationRejected(rejectQuota)
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("store document: %w", err)
	}

	s.metrics.IncDocumentGenerated(cfg.Key)
	s.logger.InfoContext(ctx, "document generated",
		"document_id", doc.ID,
		"type", doc.Type,
		"user_id", session.UserID,
	)
	return doc, nil
}

// DefaultTitle builds "<type title> - <name>" from the first person name in
// the form, falling back to creator and then to a generic name.
func DefaultTitle(cfg *model.DocumentTypeConfig, values map[string]string, creator string) string {
	name := model.SubjectName(values)
	if name == "" {
		name = strings.TrimSpace(creator)
	}
	if name == "" {
		name = fallbackName
	}
	return cfg.Title + " - " + name
}

// Get returns a document the session may access.
func (s *DocumentService) Get(ctx context.Context, session *model.Session, id string) (*model.Document, error) {
	doc, err := s.docs.GetDocumentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if !session.CanAccess(doc.CreatedBy) {
		return nil, ErrForbidden
	}
	return doc, nil
}

// Download resolves an artifact path ("<id>.html") to its document.
func (s *DocumentService) Download(ctx context.Context, session *model.Session, path string) (*model.Document, error) {
	id, ok := model.DocumentIDFromArtifactPath(path)
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return s.Get(ctx, session, id)
}

// List returns the session user's documents matching criteria, newest first.
func (s *DocumentService) List(ctx context.Context, session *model.Session, criteria listing.Criteria) ([]model.Document, error) {
	docs, err := s.docs.ListDocuments(ctx, repository.DocumentFilter{CreatedBy: session.UserID})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return listing.Filter(docs, criteria), nil
}

// UpdateStatus moves a document to another status.
// Setting the current status again is rejected without a write.
func (s *DocumentService) UpdateStatus(ctx context.Context, session *model.Session, id, status string) (*model.Document, error) {
	to, ok := model.ParseDocumentStatus(status)
	if !ok {
		return nil, ErrInvalidTransition
	}

	doc, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == to {
		return nil, ErrStatusUnchanged
	}
	if !model.CanTransition(doc.Status, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.docs.UpdateDocumentStatus(ctx, id, doc.Status, to)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, ErrStatusConflict
		case errors.Is(err, repository.ErrDocumentNotFound):
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.metrics.IncStatusChanged(string(to))
	s.logger.InfoContext(ctx, "document status changed",
		"document_id", id,
		"from", doc.Status,
		"to", to,
		"user_id", session.UserID,
	)
	return updated, nil
}

// Usage is a user's plan and consumption for the current month.
type Usage struct {
	Plan                model.Plan
	SubscriptionExpires *time.Time
	MonthlyCount        int
	Limit               int
	Remaining           quota.Remaining
}

// Usage computes the current month's usage of a user.
func (s *DocumentService) Usage(ctx context.Context, user *model.User) (*Usage, error) {
	now := s.now()
	count, err := s.monthlyCount(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	plan := user.EffectivePlan(now)
	usage := &Usage{
		Plan:         plan,
		MonthlyCount: count,
		Remaining:    s.gate.Remaining(plan, count),
	}
	if plan == model.PlanPro {
		usage.SubscriptionExpires = user.SubscriptionExpires
	} else {
		usage.Limit = s.gate.Limit
	}
	return usage, nil
}

// Dashboard summarizes a user's account.
type Dashboard struct {
	User           *model.User
	Usage          *Usage
	StatusCounts   map[model.DocumentStatus]int
	TotalDocuments int
	Recent         []model.Document
}

// Dashboard returns the dashboard of the user with email. Users may only
// read their own dashboard; admins may read any.
func (s *DocumentService) Dashboard(ctx context.Context, session *model.Session, email string) (*Dashboard, error) {
	email = NormalizeEmail(email)
	if !session.IsAdmin() && email != NormalizeEmail(session.Email) {
		return nil, ErrForbidden
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	usage, err := s.Usage(ctx, user)
	if err != nil {
		return nil, err
	}

	counts, err := s.docs.CountDocumentsByStatus(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	recent, err := s.docs.ListDocuments(ctx, repository.DocumentFilter{CreatedBy: user.ID, Limit: RecentDocuments})
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}

	return &Dashboard{
		User:           user,
		Usage:          usage,
		StatusCounts:   counts,
		TotalDocuments: total,
		Recent:         recent,
	}, nil
}

// monthlyCount returns how many documents a user created in the calendar
// month of now, preferring the cached counter.
func (s *DocumentService) monthlyCount(ctx context.Context, userID string, now time.Time) (int, error) {
	month := quota.MonthKey(now, s.loc)
	if s.counts != nil {
		n, err := s.counts.GetMonthlyCount(ctx, userID, month)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "quota cache read failed", "user_id", userID, "error", err)
		}
	}

	start, end := quota.MonthBounds(now, s.loc)
	n, err := s.docs.CountDocumentsCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("count monthly documents: %w", err)
	}

	if s.counts != nil {
		if err := s.counts.SetMonthlyCount(ctx, userID, month, n); err != nil {
			s.logger.WarnContext(ctx, "quota cache write failed", "user_id", userID, "error", err)
		}
	}
	return n, nil
}

func (s *DocumentService) forgetCount(ctx context.Context, userID string, now time.Time) {
	if s.counts == nil {
		return
	}
	if err := s.counts.InvalidateMonthlyCount(ctx, userID, quota.MonthKey(now, s.loc)); err != nil {
		s.logger.WarnContext(ctx, "quota cache invalidation failed", "user_id", userID, "error", err)
	}
}
