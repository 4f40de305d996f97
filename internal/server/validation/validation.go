// Package validation checks user and product input before it reaches the
// services. Problems are returned as apperr details in field order; a nil
// result means the input is valid.
package validation

import (
	"errors"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type signupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

var signupMessages = map[string]string{
	"Email":    "Invalid email address.",
	"Password": "Password must be atleast 6 characters.",
}

// Image URLs are not checked.
type productInput struct {
	Title       string `validate:"required,min=5"`
	ProductType string `validate:"required"`
	Description string `validate:"required,min=5"`
}

var productMessages = map[string]string{
	"Title":       "Invalid title.",
	"ProductType": "Invalid productType.",
	"Description": "Invalid description.",
}

// ValidateSignup checks the registration input. name is accepted as is.
func ValidateSignup(email, name, password string) []apperr.Detail {
	return check(signupInput{Email: email, Password: password}, signupMessages)
}

// ValidateProduct checks the product input.
func ValidateProduct(title, description string, imageURLs []string, productType string) []apperr.Detail {
	return check(productInput{Title: title, ProductType: productType, Description: description}, productMessages)
}

func check(v any, messages map[string]string) []apperr.Detail {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.Detail{{Message: err.Error()}}
	}

	details := make([]apperr.Detail, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.StructField()]; ok {
			details = append(details, apperr.Detail{Message: msg})
		}
	}
	return details
}
