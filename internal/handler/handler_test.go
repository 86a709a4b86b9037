package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"memoboard/internal/domain"
	"memoboard/internal/markdown"
	"memoboard/internal/middleware"
	"memoboard/internal/repository"
	"memoboard/internal/service"
	"memoboard/internal/storage"
	"memoboard/pkg/jwt"
	"memoboard/pkg/response"

	"github.com/gorilla/mux"
)

type memoryRepo struct {
	memos map[string]*domain.Memo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{memos: make(map[string]*domain.Memo)}
}

func (m *memoryRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (m *memoryRepo) Create(ctx context.Context, memo *domain.Memo) error {
	copied := *memo
	m.memos[memo.ID] = &copied
	return nil
}

func (m *memoryRepo) FindByID(ctx context.Context, id string) (*domain.Memo, error) {
	if memo, ok := m.memos[id]; ok {
		copied := *memo
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryRepo) List(ctx context.Context) ([]*domain.Memo, error) {
	return m.filtered(func(*domain.Memo) bool { return true }), nil
}

func (m *memoryRepo) FindByRange(ctx context.Context, start, end string) ([]*domain.Memo, error) {
	return m.filtered(func(memo *domain.Memo) bool {
		return memo.CreatedAt >= start && memo.CreatedAt < end
	}), nil
}

func (m *memoryRepo) CountByRange(ctx context.Context, start, end string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, memo := range m.memos {
		if memo.CreatedAt >= start && memo.CreatedAt < end {
			counts[memo.CreatedAt[:10]]++
		}
	}
	return counts, nil
}

func (m *memoryRepo) Update(ctx context.Context, memo *domain.Memo) error {
	if _, ok := m.memos[memo.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *memo
	m.memos[memo.ID] = &copied
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.memos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.memos, id)
	return nil
}

func (m *memoryRepo) filtered(keep func(*domain.Memo) bool) []*domain.Memo {
	var memos []*domain.Memo
	for _, memo := range m.memos {
		if keep(memo) {
			copied := *memo
			memos = append(memos, &copied)
		}
	}
	sort.Slice(memos, func(i, j int) bool {
		return memos[i].CreatedAt > memos[j].CreatedAt
	})
	return memos
}

// newTestRouter wires the API the same way main does, over an
// in-memory repository and a temp-dir upload store.
func newTestRouter(t *testing.T) (*mux.Router, *memoryRepo) {
	t.Helper()

	repo := newMemoryRepo()
	renderer := markdown.New()
	memoService := service.NewMemoService(repo, renderer, nil)
	authService := service.NewAuthService("admin", "s3cret", "handler-test-secret", 24*time.Hour, time.Hour)

	store, err := storage.New(t.TempDir(), "http://localhost:3000")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	authHandler := NewAuthHandler(authService)
	memoHandler := NewMemoHandler(memoService)
	resourceHandler := NewResourceHandler(store)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST")

	api.HandleFunc("/memos", memoHandler.List).Methods("GET")
	api.HandleFunc("/memos", memoHandler.Create).Methods("POST")
	api.HandleFunc("/memos/date/{date}", memoHandler.ListByDate).Methods("GET")
	api.HandleFunc("/memos/stats/{year}/{month}", memoHandler.Stats).Methods("GET")

	api.HandleFunc("/resources", resourceHandler.Upload).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(authService))
	protected.HandleFunc("/memos/{id}", memoHandler.Update).Methods("PUT")
	protected.HandleFunc("/memos/{id}", memoHandler.Delete).Methods("DELETE")

	return r, repo
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name       string
		payload    interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid credentials",
			payload:    domain.LoginRequest{Username: "admin", Password: "s3cret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			payload:    domain.LoginRequest{Username: "admin", Password: "nope"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   response.CodeInvalidCredentials,
		},
		{
			name:       "wrong username",
			payload:    domain.LoginRequest{Username: "root", Password: "s3cret"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   response.CodeInvalidCredentials,
		},
		{
			name:       "missing fields",
			payload:    map[string]string{"username": "admin"},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/auth/login", "", tt.payload)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := errCode(t, rec); got != tt.wantCode {
					t.Errorf("code = %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestCreateAndListMemos(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, content := range []string{"first memo", "second memo", "third memo"} {
		rec := doJSON(t, r, http.MethodPost, "/api/memos", "", domain.CreateMemoRequest{Content: content})
		if rec.Code != http.StatusOK {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
		// Distinct createdAt values for the ordering assertion.
		time.Sleep(2 * time.Millisecond)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/memos", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var memos []domain.Memo
	if err := json.NewDecoder(rec.Body).Decode(&memos); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(memos) != 3 {
		t.Fatalf("len = %d, want 3", len(memos))
	}
	for i := 1; i < len(memos); i++ {
		if !(memos[i-1].CreatedAt > memos[i].CreatedAt) {
			t.Errorf("not descending: %q before %q", memos[i-1].CreatedAt, memos[i].CreatedAt)
		}
	}
	if memos[0].Content.Raw != "third memo" {
		t.Errorf("newest first, got %q", memos[0].Content.Raw)
	}
}

func TestCreateMemoValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/memos", "", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateRequiresAuth(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.memos["m1"] = &domain.Memo{ID: "m1", CreatedAt: "2024-03-01T10:00:00.000+08:00"}

	rec := doJSON(t, r, http.MethodPut, "/api/memos/m1", "", domain.UpdateMemoRequest{Content: "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	token := login(t, r)
	rec = doJSON(t, r, http.MethodPut, "/api/memos/m1", token, domain.UpdateMemoRequest{Content: "updated *text*"})
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated update status = %d: %s", rec.Code, rec.Body.String())
	}

	var memo domain.Memo
	if err := json.NewDecoder(rec.Body).Decode(&memo); err != nil {
		t.Fatalf("decode memo: %v", err)
	}
	if memo.Content.Raw != "updated *text*" {
		t.Errorf("Raw = %q", memo.Content.Raw)
	}
}

func TestUpdateNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPut, "/api/memos/missing", token, domain.UpdateMemoRequest{Content: "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := errCode(t, rec); got != response.CodeNotFound {
		t.Errorf("code = %q, want %q", got, response.CodeNotFound)
	}
}

func TestDeleteMemo(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.memos["m1"] = &domain.Memo{ID: "m1", CreatedAt: "2024-03-01T10:00:00.000+08:00"}
	token := login(t, r)

	if rec := doJSON(t, r, http.MethodDelete, "/api/memos/m1", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated delete status = %d, want 401", rec.Code)
	}

	rec := doJSON(t, r, http.MethodDelete, "/api/memos/nope", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/memos/m1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/memos", "", nil)
	var memos []domain.Memo
	if err := json.NewDecoder(rec.Body).Decode(&memos); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(memos) != 0 {
		t.Errorf("deleted memo still listed: %d entries", len(memos))
	}
}

func TestListByDateEndpoint(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.memos["in"] = &domain.Memo{ID: "in", CreatedAt: "2024-03-01T00:00:00.000+08:00"}
	repo.memos["out"] = &domain.Memo{ID: "out", CreatedAt: "2024-03-02T00:00:00.000+08:00"}

	rec := doJSON(t, r, http.MethodGet, "/api/memos/date/2024-03-01", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var memos []domain.Memo
	if err := json.NewDecoder(rec.Body).Decode(&memos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(memos) != 1 || memos[0].ID != "in" {
		t.Errorf("memos = %+v, want only the in-range one", memos)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/memos/date/01-03-2024", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date status = %d, want 400", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.memos["m1"] = &domain.Memo{ID: "m1", CreatedAt: "2024-02-29T10:00:00.000+08:00"}

	rec := doJSON(t, r, http.MethodGet, "/api/memos/stats/2024/2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if len(stats) != 29 {
		t.Errorf("len(stats) = %d, want 29 for leap February", len(stats))
	}
	if stats["2024-02-29"] != 1 {
		t.Errorf("2024-02-29 = %d, want 1", stats["2024-02-29"])
	}

	rec = doJSON(t, r, http.MethodGet, "/api/memos/stats/2024/13", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, "/api/memos/stats/abcd/2", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric year status = %d, want 400", rec.Code)
	}
}

func TestUploadEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// Multipart body without the file part.
	var empty bytes.Buffer
	mw := multipart.NewWriter(&empty)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resources", &empty)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d, want 400", rec.Code)
	}

	var body bytes.Buffer
	mw = multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fmt.Fprint(part, "fake-png-bytes")
	mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/resources", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	var res domain.Resource
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if res.Name != "photo.png" {
		t.Errorf("Name = %q", res.Name)
	}
	if res.Size != int64(len("fake-png-bytes")) {
		t.Errorf("Size = %d", res.Size)
	}
	if res.URL == "" {
		t.Error("URL empty")
	}
}

func TestExpiredTokenThenRefreshedRetry(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.memos["m1"] = &domain.Memo{ID: "m1", CreatedAt: "2024-03-01T10:00:00.000+08:00"}

	expired, err := jwt.GenerateToken("admin", -time.Minute, "handler-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	rec := doJSON(t, r, http.MethodDelete, "/api/memos/m1", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token status = %d, want 401", rec.Code)
	}
	if got := errCode(t, rec); got != response.CodeTokenExpired {
		t.Fatalf("code = %q, want %q", got, response.CodeTokenExpired)
	}

	// Refresh from a still-valid session and retry the same request.
	valid := login(t, r)
	recRefresh := doJSON(t, r, http.MethodPost, "/api/auth/refresh", valid, nil)
	if recRefresh.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", recRefresh.Code, recRefresh.Body.String())
	}
	var refreshed domain.TokenResponse
	if err := json.NewDecoder(recRefresh.Body).Decode(&refreshed); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/memos/m1", refreshed.Token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("retried delete status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	r, _ := newTestRouter(t)

	expired, err := jwt.GenerateToken("admin", -time.Minute, "handler-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	rec := doJSON(t, r, http.MethodPost, "/api/auth/refresh", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := errCode(t, rec); got != response.CodeTokenExpired {
		t.Errorf("code = %q, want %q", got, response.CodeTokenExpired)
	}
}
