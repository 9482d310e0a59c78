package model

type PageReq struct {
	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=500"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (r *PageReq) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = defaultPageSize
	}
	if r.Size > maxPageSize {
		r.Size = maxPageSize
	}
}

func (r PageReq) Skip() int64 {
	return int64((r.Page - 1) * r.Size)
}
