package model

type ListNotificationsReq struct {
	PageReq
	UnreadOnly bool `query:"unread"`
}

func (r *ListNotificationsReq) Validate() error {
	r.Normalize()
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
