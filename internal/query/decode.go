package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/aidanlsb/quarry/internal/dates"
)

// decoder converts a scanned column value into its answer value.
type decoder func(raw any) (any, error)

func decoderFor(kind PredicateKind) decoder {
	switch kind {
	case PredicateNumber:
		return decodeNumber
	case PredicateDateTime:
		return decodeDateTime
	case PredicateBoolean:
		return decodeBoolean
	default:
		return decodeString
	}
}

func decodeString(raw any) (any, error) {
	switch v := raw.(type) {
	case nil, string, int64:
		return v, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func decodeInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "decode integer %q", v)
		}
		return n, nil
	}
	return nil, errors.Newf("decode integer: unexpected %T", raw)
}

func decodeFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "decode float %q", v)
		}
		return f, nil
	}
	return nil, errors.Newf("decode float: unexpected %T", raw)
}

// decodeNumber keeps integers as integers and everything else as floats.
func decodeNumber(raw any) (any, error) {
	switch v := raw.(type) {
	case int64, nil:
		return v, nil
	case int32:
		return int64(v), nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
	}
	return decodeFloat(raw)
}

func decodeBoolean(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return truthy(raw), nil
}

// truthy reads a boolean result; NULL reads as false.
func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(v) {
		case "1", "t", "true":
			return true
		}
	}
	return false
}

func decodeDateTime(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	case string:
		t, err := dates.Parse(v)
		if err != nil {
			return nil, errors.Wrap(err, "decode date_time")
		}
		return t.Format(time.RFC3339), nil
	}
	return nil, errors.Newf("decode date_time: unexpected %T", raw)
}

func decodeJSON(raw any, into any) (bool, error) {
	var data string
	switch v := raw.(type) {
	case nil:
		return false, nil
	case string:
		data = v
	default:
		return false, errors.Newf("decode json: unexpected %T", raw)
	}
	if data == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(data), into); err != nil {
		return false, errors.Wrap(err, "decode json")
	}
	return true, nil
}

func decodeJSONObject(raw any) (any, error) {
	var out map[string]any
	ok, err := decodeJSON(raw, &out)
	if !ok || err != nil {
		return nil, err
	}
	return out, nil
}

// decodeFile maps the empty file sentinel to nil.
func decodeFile(raw any) (any, error) {
	v, err := decodeJSONObject(raw)
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil, err
	}
	return v, err
}

func decodeJSONArray(raw any) (any, error) {
	var out []any
	ok, err := decodeJSON(raw, &out)
	if !ok || err != nil {
		return nil, err
	}
	return out, nil
}
