package service

import (
	"context"
	"fmt"
	"time"

	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
)

// Stats are the headline numbers of the admin panel.
type Stats struct {
	TotalUsers     int
	TotalDocuments int
	ProUsers       int
	FreeUsers      int
}

// AdminService serves the admin panel.
type AdminService struct {
	store AdminStore
	now   func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{store: store, now: time.Now}
}

// Stats counts users per effective plan and all documents.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	byPlan, err := s.store.CountUsersByPlan(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	docs, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	stats := &Stats{
		TotalDocuments: docs,
		ProUsers:       byPlan[model.PlanPro],
		FreeUsers:      byPlan[model.PlanFree],
	}
	stats.TotalUsers = stats.ProUsers + stats.FreeUsers
	return stats, nil
}

// Users lists every user with the number of documents they created.
func (s *AdminService) Users(ctx context.Context) ([]repository.UserSummary, error) {
	users, err := s.store.ListUsersWithDocumentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Documents lists the documents of all users matching criteria, newest first.
func (s *AdminService) Documents(ctx context.Context, criteria listing.Criteria) ([]model.Document, error) {
	docs, err := s.store.ListDocuments(ctx, repository.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return listing.Filter(docs, criteria), nil
}
