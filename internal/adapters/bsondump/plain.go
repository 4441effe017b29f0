package bsondump

import (
	"encoding/base64"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Plain converts driver values into JSON-friendly Go values. Documents become
// map[string]any, arrays []any, and scalar BSON types their natural Go shape
func Plain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = Plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Plain(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Plain(e)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return x.Time().UTC()
	case bson.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case bson.Decimal128:
		return x.String()
	case bson.Binary:
		return base64.StdEncoding.EncodeToString(x.Data)
	case bson.Regex:
		return x.String()
	case bson.Null, bson.Undefined:
		return nil
	case bson.Symbol:
		return string(x)
	case bson.JavaScript:
		return string(x)
	case bson.MinKey, bson.MaxKey:
		return nil
	default:
		return v
	}
}
