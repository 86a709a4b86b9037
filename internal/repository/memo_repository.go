package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"memoboard/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// ErrNotFound reports a memo identifier with no backing document.
var ErrNotFound = errors.New("memo not found")

type MemoRepository interface {
	// EnsureIndexes creates the Mango index the sorted queries depend
	// on. Called once at startup.
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, memo *domain.Memo) error
	FindByID(ctx context.Context, id string) (*domain.Memo, error)
	// List returns every memo ordered by createdAt descending.
	List(ctx context.Context) ([]*domain.Memo, error)
	// FindByRange returns memos with start <= createdAt < end, ordered
	// by createdAt descending. Bounds are compared as strings; the
	// fixed-width timestamp format makes that equivalent to comparing
	// instants.
	FindByRange(ctx context.Context, start, end string) ([]*domain.Memo, error)
	// CountByRange counts memos with start <= createdAt < end, grouped
	// by the date portion (first ten bytes) of createdAt.
	CountByRange(ctx context.Context, start, end string) (map[string]int, error)
	Update(ctx context.Context, memo *domain.Memo) error
	Delete(ctx context.Context, id string) error
}

type memoRepository struct {
	client *kivik.Client
	dbName string
}

func NewMemoRepository(client *kivik.Client, dbName string) MemoRepository {
	return &memoRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *memoRepository) EnsureIndexes(ctx context.Context) error {
	db := r.client.DB(r.dbName)
	index := map[string]interface{}{
		"fields": []string{"createdAt"},
	}
	if err := db.CreateIndex(ctx, "memo-indexes", "by-created-at", index); err != nil {
		return fmt.Errorf("failed to create createdAt index: %w", err)
	}
	return nil
}

func (r *memoRepository) Create(ctx context.Context, memo *domain.Memo) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("memo:%s", memo.ID)
	if _, err := db.Put(ctx, docID, memo); err != nil {
		return fmt.Errorf("failed to create memo: %w", err)
	}

	return nil
}

func (r *memoRepository) FindByID(ctx context.Context, id string) (*domain.Memo, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, fmt.Sprintf("memo:%s", id))

	var memo domain.Memo
	if err := row.ScanDoc(&memo); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find memo: %w", err)
	}

	return &memo, nil
}

func (r *memoRepository) List(ctx context.Context) ([]*domain.Memo, error) {
	return r.find(ctx, map[string]interface{}{
		"createdAt": map[string]interface{}{"$gt": ""},
	})
}

func (r *memoRepository) FindByRange(ctx context.Context, start, end string) ([]*domain.Memo, error) {
	return r.find(ctx, map[string]interface{}{
		"createdAt": map[string]interface{}{
			"$gte": start,
			"$lt":  end,
		},
	})
}

func (r *memoRepository) find(ctx context.Context, selector map[string]interface{}) ([]*domain.Memo, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": selector,
		"sort": []map[string]string{
			{"createdAt": "desc"},
		},
		"limit": 10000,
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query memos: %w", err)
	}
	defer rows.Close()

	var memos []*domain.Memo
	for rows.Next() {
		var memo domain.Memo
		if err := rows.ScanDoc(&memo); err != nil {
			continue
		}
		memos = append(memos, &memo)
	}

	return memos, nil
}

// CountByRange fetches only the createdAt field and groups in process.
// CouchDB's Mango interface has no aggregation stage, so the grouping
// the original store did server-side happens here instead.
func (r *memoRepository) CountByRange(ctx context.Context, start, end string) (map[string]int, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"createdAt": map[string]interface{}{
				"$gte": start,
				"$lt":  end,
			},
		},
		"fields": []string{"createdAt"},
		"limit":  10000,
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query memo counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var doc struct {
			CreatedAt string `json:"createdAt"`
		}
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		if len(doc.CreatedAt) < 10 {
			continue
		}
		counts[doc.CreatedAt[:10]]++
	}

	return counts, nil
}

func (r *memoRepository) Update(ctx context.Context, memo *domain.Memo) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("memo:%s", memo.ID)

	var existingDoc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch existing memo for update: %w", err)
	}

	existingDoc["content"] = memo.Content
	existingDoc["resources"] = memo.Resources
	existingDoc["tags"] = memo.Tags
	existingDoc["updatedAt"] = memo.UpdatedAt

	if _, err := db.Put(ctx, docID, existingDoc); err != nil {
		return fmt.Errorf("failed to update memo: %w", err)
	}

	return nil
}

func (r *memoRepository) Delete(ctx context.Context, id string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("memo:%s", id)

	var existingDoc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch memo for delete: %w", err)
	}

	rev, _ := existingDoc["_rev"].(string)
	if _, err := db.Delete(ctx, docID, rev); err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}

	return nil
}
