package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"garden/internal/adapters/bsondump"
	perr "garden/internal/platform/errors"
	ptime "garden/internal/platform/time"
	"garden/internal/services/migrate/domain"
)

// normalizer maps a raw slack document to the stored record shape
type normalizer struct{}

// NewNormalizer returns the record normalizer
func NewNormalizer() domain.Normalizer { return normalizer{} }

// Normalize rejects documents without a numeric ts with an
// ErrorCodeValidation error. Text fields pass through, structured fields
// are JSON encoded and empty values become nil
func (normalizer) Normalize(doc domain.Document) (domain.Record, error) {
	ts, err := tsString(doc["ts"])
	if err != nil {
		return domain.Record{}, err
	}
	at, err := ptime.ParseUnixDecimal(ts)
	if err != nil {
		return domain.Record{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "ts %q is not a unix timestamp", ts), "ts")
	}

	rec := domain.Record{
		TS:         ts,
		OccurredAt: at,
		BotID:      text(doc["bot_id"]),
		Type:       text(doc["type"]),
		Text:       text(doc["text"]),
		User:       text(doc["user"]),
		Team:       text(doc["team"]),
	}
	if rec.BotProfile, err = document(doc["bot_profile"]); err != nil {
		return domain.Record{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "bot_profile of %s", ts), "bot_profile")
	}
	if rec.Attachments, err = document(doc["attachments"]); err != nil {
		return domain.Record{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "attachments of %s", ts), "attachments")
	}
	return rec, nil
}

func tsString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", perr.WithField(perr.New(perr.ErrorCodeValidation, "missing ts"), "ts")
	case string:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			break
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	}
	return "", perr.WithField(perr.Newf(perr.ErrorCodeValidation, "ts has type %T", v), "ts")
}

func text(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	return &s
}

// document encodes a nested value as JSON; nil and empty containers become nil
func document(v any) (json.RawMessage, error) {
	v = bsondump.Plain(v)
	if isEmpty(v) {
		return nil, nil
	}
	return json.Marshal(v)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	}
	return false
}
