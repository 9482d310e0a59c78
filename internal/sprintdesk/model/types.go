package model

import "time"

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Message
}

// Base carries the identity and audit fields shared by every document.
type Base struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (b *Base) BaseRef() *Base {
	return b
}

// Init stamps a new document, replacing any client supplied identity.
func (b *Base) Init(id string, now time.Time) {
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Carry copies identity from the stored version so a replacement keeps it.
func (b *Base) Carry(prev *Base, now time.Time) {
	b.ID = prev.ID
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = now
}

// Entity is implemented by every type embedding Base.
type Entity interface {
	BaseRef() *Base
}

// CatalogEntry is a reference-data record managed by admins.
type CatalogEntry interface {
	Entity
	Validate() error
}

// Caller is the authenticated principal of a request.
type Caller struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Page is a paginated list response
type Page[T any] struct {
	Data       []*T  `json:"data"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalCount int64 `json:"total_count"`
}

func NewPage[T any](data []*T, req PageReq, total int64) *Page[T] {
	if data == nil {
		data = []*T{}
	}
	return &Page[T]{Data: data, Page: req.Page, Size: req.Size, TotalCount: total}
}
