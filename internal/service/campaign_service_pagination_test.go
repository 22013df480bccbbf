package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
	"github.com/unclebandit/cardscan-backend/internal/service"
)

// Mock Campaign Repository for pagination
type MockCampaignPaginationRepo struct {
	MockCampaignRepo
	all        []*model.Campaign
	lastStatus string
}

func newPaginationRepo() *MockCampaignPaginationRepo {
	names := []string{"C5", "C4", "C3", "C2", "C1"}
	r := &MockCampaignPaginationRepo{}
	for _, n := range names {
		r.all = append(r.all, &model.Campaign{ID: uuid.New(), Name: n, Status: model.CampaignStatusCompleted})
	}
	return r
}

func (m *MockCampaignPaginationRepo) ListCampaigns(ctx context.Context, userID uuid.UUID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.lastStatus = status
	start := offset
	end := offset + limit

	if start >= len(m.all) {
		return []*model.Campaign{}, len(m.all), nil
	}
	if end > len(m.all) {
		end = len(m.all)
	}
	return m.all[start:end], len(m.all), nil
}

func TestPagination(t *testing.T) {
	svc := &service.CampaignService{
		CampaignRepo: newPaginationRepo(),
	}
	ctx := context.Background()
	user := uuid.New()
	pageSize := 2

	page1, pagination1, _ := svc.ListCampaigns(ctx, user, 1, pageSize, "")
	page2, _, _ := svc.ListCampaigns(ctx, user, 2, pageSize, "")

	expectedTotal := 5
	if pagination1["total_count"] != expectedTotal {
		t.Errorf("expected total_count %d, got %d", expectedTotal, pagination1["total_count"])
	}
	if pagination1["total_pages"] != 3 {
		t.Errorf("expected 3 pages, got %d", pagination1["total_pages"])
	}

	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("expected full pages, got %d and %d", len(page1), len(page2))
	}

	// Newest first
	if page1[0].Name != "C5" || page2[0].Name != "C3" {
		t.Errorf("unexpected order: %s, %s", page1[0].Name, page2[0].Name)
	}

	// Check no duplicates between pages
	if page1[1].ID == page2[0].ID {
		t.Errorf("duplicate entry between pages: %v", page1[1].ID)
	}

	page3, pagination3, _ := svc.ListCampaigns(ctx, user, 3, pageSize, "")
	if len(page3) != 1 {
		t.Errorf("expected last page to have 1 item, got %d", len(page3))
	}
	if pagination3["total_count"] != expectedTotal {
		t.Errorf("expected total_count %d, got %d", expectedTotal, pagination3["total_count"])
	}
}

func TestPagination_Clamps(t *testing.T) {
	svc := &service.CampaignService{CampaignRepo: newPaginationRepo()}

	_, p, err := svc.ListCampaigns(context.Background(), uuid.New(), 0, 500, "")
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if p["page"] != 1 || p["page_size"] != 100 {
		t.Errorf("pagination = %v", p)
	}
}

func TestPagination_StatusFilter(t *testing.T) {
	repo := newPaginationRepo()
	svc := &service.CampaignService{CampaignRepo: repo}

	if _, _, err := svc.ListCampaigns(context.Background(), uuid.New(), 1, 10, "completed"); err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if repo.lastStatus != "completed" {
		t.Errorf("status not passed to repository: %q", repo.lastStatus)
	}

	_, _, err := svc.ListCampaigns(context.Background(), uuid.New(), 1, 10, "scheduled")
	if !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
