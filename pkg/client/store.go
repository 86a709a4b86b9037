package client

import (
	"context"
	"sync"

	"memoboard/internal/domain"
)

// MemoStore mirrors the server-side memo collection in memory and
// applies mutations through the API, keeping the local copy in sync
// without a full reload. An optional selected date narrows Memos()
// to a single day.
type MemoStore struct {
	client *Client

	mu           sync.RWMutex
	memos        []*domain.Memo
	selectedDate string
}

func NewMemoStore(c *Client) *MemoStore {
	return &MemoStore{client: c}
}

// Load replaces the local collection with the server's, newest first.
func (s *MemoStore) Load(ctx context.Context) error {
	memos, err := s.client.Memos(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.memos = memos
	s.mu.Unlock()
	return nil
}

// SelectDate narrows Memos() to memos created on a YYYY-MM-DD day.
// An empty date clears the filter.
func (s *MemoStore) SelectDate(date string) {
	s.mu.Lock()
	s.selectedDate = date
	s.mu.Unlock()
}

// Memos returns the mirrored collection, filtered by the selected
// date when one is set.
func (s *MemoStore) Memos() []*domain.Memo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedDate == "" {
		out := make([]*domain.Memo, len(s.memos))
		copy(out, s.memos)
		return out
	}

	out := make([]*domain.Memo, 0)
	for _, memo := range s.memos {
		if len(memo.CreatedAt) >= 10 && memo.CreatedAt[:10] == s.selectedDate {
			out = append(out, memo)
		}
	}
	return out
}

// Create posts a new memo and prepends it locally. The server stamps
// creation time, so the new memo is the newest.
func (s *MemoStore) Create(ctx context.Context, req domain.CreateMemoRequest) (*domain.Memo, error) {
	memo, err := s.client.CreateMemo(ctx, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.memos = append([]*domain.Memo{memo}, s.memos...)
	s.mu.Unlock()
	return memo, nil
}

// Update edits a memo and replaces the mirrored entry in place.
func (s *MemoStore) Update(ctx context.Context, id string, req domain.UpdateMemoRequest) (*domain.Memo, error) {
	memo, err := s.client.UpdateMemo(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for i, existing := range s.memos {
		if existing.ID == id {
			s.memos[i] = memo
			break
		}
	}
	s.mu.Unlock()
	return memo, nil
}

// Delete removes a memo on the server and from the mirror.
func (s *MemoStore) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteMemo(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	for i, existing := range s.memos {
		if existing.ID == id {
			s.memos = append(s.memos[:i], s.memos[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
