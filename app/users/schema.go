package users

// CreateUser is the body of POST /api/users.
type CreateUser struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=18,lte=150"`
}

// UpdateUser is the body of PUT/PATCH /api/users/{id}; nil fields are left
// unchanged.
type UpdateUser struct {
	Name  *string `json:"name" validate:"omitnil,min=2,max=100"`
	Email *string `json:"email" validate:"omitnil,email"`
	Age   *int    `json:"age" validate:"omitnil,gte=18,lte=150"`
}

func (u UpdateUser) apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Age != nil {
		user.Age = *u.Age
	}
}
