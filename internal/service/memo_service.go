package service

import (
	"context"
	"errors"
	"fmt"

	"memoboard/internal/domain"
	"memoboard/internal/markdown"
	"memoboard/internal/repository"
	"memoboard/pkg/timeutil"

	"github.com/google/uuid"
)

// singleUserID is the fixed owner of every memo. The application has
// exactly one (admin) author.
const singleUserID = "1"

// MemoEvents receives change notifications after successful mutations.
type MemoEvents interface {
	MemoCreated(memo *domain.Memo)
	MemoUpdated(memo *domain.Memo)
	MemoDeleted(id string)
}

type MemoService struct {
	repo     repository.MemoRepository
	renderer *markdown.Renderer
	events   MemoEvents
}

func NewMemoService(repo repository.MemoRepository, renderer *markdown.Renderer, events MemoEvents) *MemoService {
	return &MemoService{
		repo:     repo,
		renderer: renderer,
		events:   events,
	}
}

func (s *MemoService) Create(ctx context.Context, req *domain.CreateMemoRequest) (*domain.Memo, error) {
	content, err := s.renderer.Render(req.Content)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	memo := &domain.Memo{
		ID:         uuid.New().String(),
		Content:    content,
		Resources:  req.Resources,
		Tags:       req.Tags,
		Visibility: domain.VisibilityPublic,
		UserID:     singleUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if memo.Resources == nil {
		memo.Resources = []domain.Resource{}
	}
	if memo.Tags == nil {
		memo.Tags = []string{}
	}

	if err := s.repo.Create(ctx, memo); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.MemoCreated(memo)
	}

	return memo, nil
}

func (s *MemoService) ListAll(ctx context.Context) ([]*domain.Memo, error) {
	memos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if memos == nil {
		memos = []*domain.Memo{}
	}
	return memos, nil
}

// ListByDate returns the memos of one calendar day in the fixed UTC+8
// offset. The day is the half-open range [00:00:00.000, next midnight).
func (s *MemoService) ListByDate(ctx context.Context, date string) ([]*domain.Memo, error) {
	start, end, err := timeutil.DayRange(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}

	memos, err := s.repo.FindByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if memos == nil {
		memos = []*domain.Memo{}
	}
	return memos, nil
}

// MonthlyStats maps every day of the month to its memo count. Days
// without memos are present with zero, so the key set is always the
// full calendar month.
func (s *MemoService) MonthlyStats(ctx context.Context, year, month int) (domain.MonthlyStats, error) {
	start, end, err := timeutil.MonthRange(year, month)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}

	counts, err := s.repo.CountByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	stats := make(domain.MonthlyStats)
	for _, day := range timeutil.DaysInMonth(year, month) {
		stats[day] = 0
	}
	for day, n := range counts {
		if _, ok := stats[day]; ok {
			stats[day] = n
		}
	}

	return stats, nil
}

// Update replaces the memo's content, resources, and tags wholesale
// and stamps updatedAt. createdAt is never touched.
func (s *MemoService) Update(ctx context.Context, id string, req *domain.UpdateMemoRequest) (*domain.Memo, error) {
	memo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, err
	}

	content, err := s.renderer.Render(req.Content)
	if err != nil {
		return nil, err
	}

	memo.Content = content
	memo.Resources = req.Resources
	memo.Tags = req.Tags
	if memo.Resources == nil {
		memo.Resources = []domain.Resource{}
	}
	if memo.Tags == nil {
		memo.Tags = []string{}
	}
	memo.UpdatedAt = timeutil.Now()

	if err := s.repo.Update(ctx, memo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, err
	}

	if s.events != nil {
		s.events.MemoUpdated(memo)
	}

	return memo, nil
}

func (s *MemoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemoNotFound
		}
		return err
	}

	if s.events != nil {
		s.events.MemoDeleted(id)
	}

	return nil
}
