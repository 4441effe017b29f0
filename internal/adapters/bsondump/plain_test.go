package bsondump

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPlain(t *testing.T) {
	oid := bson.NewObjectID()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	in := bson.D{
		{Key: "_id", Value: oid},
		{Key: "at", Value: bson.NewDateTimeFromTime(when)},
		{Key: "nested", Value: bson.M{"list": bson.A{int32(1), "two", bson.Null{}}}},
		{Key: "bin", Value: bson.Binary{Data: []byte("hi")}},
	}

	out, ok := Plain(in).(map[string]any)
	if !ok {
		t.Fatalf("Plain(bson.D) should yield a map, got %T", Plain(in))
	}
	if out["_id"] != oid.Hex() {
		t.Fatalf("_id = %v", out["_id"])
	}
	if at, ok := out["at"].(time.Time); !ok || !at.Equal(when) {
		t.Fatalf("at = %#v", out["at"])
	}
	nested := out["nested"].(map[string]any)
	list := nested["list"].([]any)
	if list[0] != int32(1) || list[1] != "two" || list[2] != nil {
		t.Fatalf("list = %#v", list)
	}
	if out["bin"] != "aGk=" {
		t.Fatalf("bin = %v", out["bin"])
	}
	if Plain(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}
