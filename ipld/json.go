package ipld

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// DecodeJSON decodes JSON bytes into a cborish value tree, resolving any
// {"/": "<cid-string>"} object into a Link. JSON numbers stay float64.
func DecodeJSON(data []byte) (interface{}, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errDecodef("decoding json: %s", err)
	}
	return linkifyJSON(raw)
}

// ToJSON renders a value tree to its canonical JSON form: Link becomes
// {"/": "<cid-string>"}, and any integer is written as a float literal
// (always carrying a decimal point) to match the convention of the
// external JSON producers this format interchanges with.
func ToJSON(v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeJSON(buf, toJsonish(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		enc, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case []byte:
		enc, err := json.Marshal(base64.StdEncoding.EncodeToString(x))
		if err != nil {
			return err
		}
		buf.Write(enc)
	case float64:
		buf.WriteString(formatFloat(x))
	case int64:
		// toJsonish already promotes int64 to float64; this case only
		// fires for values passed directly without going through it.
		buf.WriteString(formatFloat(float64(x)))
	case []interface{}:
		buf.WriteByte('[')
		for i, sub := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, sub); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]interface{}:
		buf.WriteByte('{')
		keys := sortedKeys(x)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := writeJSON(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("ipld: cannot render %T to json", v)
	}
	return nil
}

// formatFloat renders f the way the external JSON producer expects: the
// shortest decimal representation that always carries a "." so that whole
// numbers never read back as integer literals.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
