package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "referral-staking-backend/internal/common/errors"
)

// RegisterBindingValidators adds the custom tags used by request DTOs to gin's validator.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine")
	}
	return RegisterTags(v)
}

// RegisterTags registers walletaddr and txhash on v and reports fields by their json name.
func RegisterTags(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("walletaddr", func(fl validator.FieldLevel) bool {
		return ValidateWalletAddress(fl.Field().String(), "", false) == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("txhash", func(fl validator.FieldLevel) bool {
		return ValidateTxHash(fl.Field().String()) == nil
	})
}

// BindingErrors converts a bind error into validation AppErrors, one per field.
func BindingErrors(err error) []apperrors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []apperrors.AppError{*apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body")}
	}

	out := make([]apperrors.AppError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, *apperrors.NewValidationError(fe.Field(), describe(fe)))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "walletaddr":
		return "is not a valid wallet address"
	case "txhash":
		return "is not a valid transaction reference"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "exceeds maximum length " + fe.Param()
	case "min", "gt", "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
