package account

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	appErrors "user-registration/pkg/errors"
	"user-registration/pkg/hasher"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	mobilePattern   = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("mobile_kr", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	}))
	// bcrypt limits bytes, not characters
	must(v.RegisterValidation("bcrypt_max_bytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= hasher.MaxPasswordBytes
	}))
	must(v.RegisterValidation("password_complexity", func(fl validator.FieldLevel) bool {
		return hasPasswordComplexity(fl.Field().String())
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func hasPasswordComplexity(password string) bool {
	var hasUpper, hasLower, hasNumber bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

var messages = map[string]map[string]string{
	"username": {
		"required": "username is required",
		"min":      "username must be between 3 and 50 characters",
		"max":      "username must be between 3 and 50 characters",
		"username": "username may only contain letters, numbers and underscores",
	},
	"email": {
		"required": "email is required",
		"email":    "invalid email format",
		"max":      "invalid email format",
	},
	"password": {
		"required":            "password is required",
		"min":                 "password must be at least 6 characters",
		"bcrypt_max_bytes":    "password must be at most 72 bytes",
		"password_complexity": "password must contain uppercase and lowercase letters and a number",
	},
	"fullName": {
		"required": "full name is required",
		"min":      "full name must be between 2 and 100 characters",
		"max":      "full name must be between 2 and 100 characters",
	},
	"phone": {
		"mobile_kr": "invalid phone number format (e.g. 010-1234-5678)",
	},
}

func messageFor(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return field + " is invalid"
}

// toValidationError converts validator output into field errors. validator
// stops at the first failing tag of each field but keeps checking the other
// fields, so the result holds one message per failing field in struct order.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &appErrors.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
	}
	return out
}

// NormalizeRegister trims text fields, case-folds the email and drops an
// empty phone. The password is left exactly as typed.
func NormalizeRegister(req RegisterRequest) RegisterRequest {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			req.Phone = nil
		} else {
			req.Phone = &phone
		}
	}

	return req
}

// ValidateRegister normalizes req and checks every field, returning either
// the normalized request or a *errors.ValidationError listing all failures.
func ValidateRegister(req RegisterRequest) (*RegisterRequest, error) {
	normalized := NormalizeRegister(req)
	if err := validate.Struct(normalized); err != nil {
		return nil, toValidationError(err)
	}
	return &normalized, nil
}

// ValidateLogin only requires both fields to be present. Format rules do not
// apply so accounts created under older rules can still sign in.
func ValidateLogin(req LoginRequest) (*LoginRequest, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}
	return &req, nil
}
