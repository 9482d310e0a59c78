package model

type User struct {
	Base         `bson:",inline"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"-"`
	Role         string `bson:"role" json:"role"`
	Active       bool   `bson:"active" json:"active"`
}

func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
