// Package validation provides Laravel-style input validation on top of
// github.com/go-playground/validator/v10.
//
// # Structs
//
// Request schemas carry `validate` tags; errors are keyed by JSON name.
//
//	type CreateUser struct {
//	    Name  string `json:"name"  validate:"required,min=2,max=100"`
//	    Email string `json:"email" validate:"required,email"`
//	    Age   int    `json:"age"   validate:"gte=18"`
//	}
//
//	v := validation.Struct(&input)
//	if v.Fails() {
//	    res.ValidationError(v.Errors())  // 422 {"errors": {"email": ["..."]}}
//	}
//
// # Maps
//
// Flat input (query strings, form values) is validated with Rules, a map of
// field name to validator tag:
//
//	v := validation.Make(map[string]string{
//	    "name":  "Alice",
//	    "email": "alice@example.com",
//	}, validation.Rules{
//	    "name":  "required,min=2,max=100",
//	    "email": "required,email",
//	})
//
// # Error bag
//
// Errors mirrors Laravel's MessageBag and is also an error, so services can
// return it and handlers can recover it with FromError. Messages follow
// Laravel's wording ("The name field is required.").
package validation
