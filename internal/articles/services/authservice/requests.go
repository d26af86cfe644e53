package authservice

type RegisterRequest struct {
	Username  string `json:"username"   validate:"required,max=150,username"`
	Password  string `json:"password"   validate:"required"`
	Password2 string `json:"password2"  validate:"required"`
	Email     string `json:"email"      validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"required,max=150"` //nolint:tagliatelle
	LastName  string `json:"last_name"  validate:"required,max=150"` //nolint:tagliatelle
}
