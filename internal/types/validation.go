package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	apperrors "github.com/ahump20/lone-star-legends-championship-sub006/internal/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("asof", func(fl validator.FieldLevel) bool {
		_, err := ParseAsOf(fl.Field().String(), time.Time{})
		return err == nil
	})
}

// Validate runs the binding rules outside of an HTTP request.
func Validate(v any) error {
	return binding.Validator.ValidateStruct(v)
}

// DecodeScoreRequest reads and validates a JSON score request.
func DecodeScoreRequest(r io.Reader) (*ScoreRequest, error) {
	var req ScoreRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, err
	}
	if err := Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidationError converts decode and binding failures into a 400 AppError
// carrying per-field messages.
func ValidationError(err error) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = formatFieldError(fe)
		}
		return apperrors.NewValidationErrorWithMap(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.NewValidationErrorWithMap(map[string]string{
			field: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		})
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperrors.NewValidationError("Request body contains invalid JSON")
	}
	if errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("Request body is required")
	}

	return apperrors.NewValidationError(err.Error())
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("must have at most %s items", param)
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be at most %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "asof":
		return "must be RFC3339 or YYYY-MM-DD"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
