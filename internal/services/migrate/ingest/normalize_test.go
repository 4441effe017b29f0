package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"garden/internal/adapters/bsondump"
	perr "garden/internal/platform/errors"
	"garden/internal/services/migrate/domain"
)

func TestNormalize_PassThrough(t *testing.T) {
	doc := domain.Document{
		"ts":          "1704067800.000100",
		"type":        "message",
		"bot_id":      "B1",
		"text":        "",
		"team":        int32(7),
		"bot_profile": map[string]any{"name": "github"},
		"attachments": []any{map[string]any{"author_name": "alice", "text": "fix"}},
	}
	rec, err := NewNormalizer().Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if rec.TS != "1704067800.000100" {
		t.Fatalf("ts = %q", rec.TS)
	}
	if want := time.Unix(1704067800, 100000).UTC(); !rec.OccurredAt.Equal(want) {
		t.Fatalf("occurred_at = %v want %v", rec.OccurredAt, want)
	}
	if *rec.Type != "message" || *rec.BotID != "B1" || *rec.Text != "" || *rec.Team != "7" || rec.User != nil {
		t.Fatalf("text columns = %+v", rec)
	}
	var atts []map[string]string
	if err := json.Unmarshal(rec.Attachments, &atts); err != nil || atts[0]["author_name"] != "alice" {
		t.Fatalf("attachments = %s", rec.Attachments)
	}
	if string(rec.BotProfile) != `{"name":"github"}` {
		t.Fatalf("bot_profile = %s", rec.BotProfile)
	}
}

func TestNormalize_EmptyStructuresAreNull(t *testing.T) {
	rec, err := NewNormalizer().Normalize(domain.Document{
		"ts":          "1704067800",
		"attachments": []any{},
		"bot_profile": map[string]any{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Attachments != nil || rec.BotProfile != nil {
		t.Fatalf("want nil documents, got %+v", rec)
	}
}

func TestNormalize_NumericTS(t *testing.T) {
	rec, err := NewNormalizer().Normalize(domain.Document{"ts": 1704067800.5})
	if err != nil {
		t.Fatal(err)
	}
	if rec.TS != "1704067800.5" || rec.OccurredAt.Nanosecond() != 500000000 {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := []struct {
		name string
		doc  domain.Document
	}{
		{"missing", domain.Document{"type": "message"}},
		{"null", domain.Document{"ts": nil}},
		{"word", domain.Document{"ts": "yesterday"}},
		{"empty", domain.Document{"ts": ""}},
		{"bool", domain.Document{"ts": true}},
		{"nan", domain.Document{"ts": "NaN"}},
		{"far future", domain.Document{"ts": "1e20"}},
		{"int64 overflow", domain.Document{"ts": "99999999999999999999"}},
		{"far past", domain.Document{"ts": "-1e20"}},
		{"huge exponent", domain.Document{"ts": "1e300"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewNormalizer().Normalize(tc.doc)
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

// documents decoded from a real dump keep their nested shape
func TestNormalize_FromDump(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "ts", Value: "1704067800.000100"},
		{Key: "attachments", Value: bson.A{bson.D{{Key: "author_name", Value: "alice"}, {Key: "text", Value: "x"}}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatal(err)
	}
	doc, _ := bsondump.Plain(d).(map[string]any)

	rec, err := NewNormalizer().Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.Attachments) != `[{"author_name":"alice","text":"x"}]` {
		t.Fatalf("attachments = %s", rec.Attachments)
	}
}
