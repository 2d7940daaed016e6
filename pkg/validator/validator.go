package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Init builds the shared validator instance. Called once from main.
func Init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Validate runs struct validation against the `validate` tags on models.
func Validate(s interface{}) error {
	if validate == nil {
		Init()
	}
	return validate.Struct(s)
}
