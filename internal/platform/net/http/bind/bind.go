// Package bind decodes and validates request payloads
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MaxBody caps decoded request bodies
const MaxBody = 1 << 20

var (
	once  sync.Once
	valid *validator.Validate
	trans ut.Translator
)

func setup() {
	once.Do(func() {
		loc := en.New()
		trans, _ = ut.New(loc, loc).GetTranslator("en")

		valid = validator.New(validator.WithRequiredStructEnabled())
		valid.RegisterTagNameFunc(jsonName)
		_ = en_translations.RegisterDefaultTranslations(valid, trans)
		short(valid, "min", "{0} must be at least {1}")
		short(valid, "max", "{0} must be at most {1}")
		short(valid, "datetime", "{0} must match {1}")
	})
}

// jsonName reports fields by their wire name
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func short(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// Struct validates v against its validate tags. Failures come back as
// ErrorCodeValidation carrying the first offending field
func Struct(v any) error {
	setup()
	err := valid.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(trans)), fe.Field())
	}
	logger.Get().Error().Err(err).Msg("validator misuse")
	return perr.Wrap(err, perr.ErrorCodeValidation, "validation error")
}

// ParseJSON decodes exactly one JSON document into T and validates it.
// Unknown fields are rejected. GET and HEAD tolerate an empty body
func ParseJSON[T any](r *http.Request) (T, error) {
	var out T
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("close request body")
		}
	}()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				return out, Struct(out)
			}
			return out, perr.JSONErrf("empty body")
		}
		return out, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return out, perr.JSONErrf("unexpected trailing data")
	}
	return out, Struct(out)
}
