package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]{3,50}$`)

// newValidator returns validate (or a fresh validator) with the custom tags
// used by request models registered.
func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return validate
}

// normalizeUsername lowercases and trims a username before validation.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// validationError converts validator output into a VALIDATION_ERROR carrying
// the failing field and rule for each problem.
func validationError(err error, message string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
		appErr.Details = details
	}
	return appErr
}

func auditPayload(logger *zap.Logger, v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn("failed to encode audit payload", zap.Error(err))
		return nil
	}
	return raw
}
