package domain

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// MemoContent carries the three renderings of a memo body: the raw
// Markdown as submitted, the sanitized HTML used for display, and the
// tag-stripped plain text used for search indexing.
type MemoContent struct {
	Raw  string `json:"raw"`
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Resource is a file attachment embedded in a memo. It has no identity
// of its own and never exists outside its owning memo.
type Resource struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Memo timestamps are fixed-offset ISO-8601 strings at UTC+8 so that
// lexicographic order on the stored strings matches chronological order.
type Memo struct {
	ID         string      `json:"id"`
	Content    MemoContent `json:"content"`
	Resources  []Resource  `json:"resources"`
	Tags       []string    `json:"tags"`
	Visibility Visibility  `json:"visibility"`
	UserID     string      `json:"userId"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
}

type CreateMemoRequest struct {
	Content   string     `json:"content" validate:"required"`
	Resources []Resource `json:"resources"`
	Tags      []string   `json:"tags"`
}

type UpdateMemoRequest struct {
	Content   string     `json:"content" validate:"required"`
	Resources []Resource `json:"resources"`
	Tags      []string   `json:"tags"`
}

// MonthlyStats maps every calendar date of one month ("YYYY-MM-DD",
// zero-padded) to the number of memos created that day. Days without
// memos are present with a zero count.
type MonthlyStats map[string]int
