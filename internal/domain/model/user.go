package model

// User is a console account managed by administrators.
type User struct {
	ID       int64
	Username string
	Email    string
	Role     Role
}

// UserInput carries user fields. Password is write-only and never cached.
type UserInput struct {
	Username string `validate:"required,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"omitempty,min=6"`
	Role     Role   `validate:"required,oneof=admin field-officer finance-officer trainee"`
}
