package deviceflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"
)

// decodeResponse parses a provider response body into a flat string map.
// Device flow endpoints reply with small, flat JSON objects per RFC 8628
// sections 3.2 and 3.5; a few providers still emit RFC 6749 style
// form-encoded bodies, so that content type is accepted as well.
func decodeResponse(contentType string, body []byte) (map[string]string, error) {
	mediaType := contentType
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = parsed
		}
	}
	if mediaType == "application/x-www-form-urlencoded" {
		return decodeForm(body)
	}
	return decodeJSON(body)
}

func decodeJSON(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
			// Tolerated; the field simply stays absent.
		default:
			return nil, fmt.Errorf("%w: unexpected value for field %q", ErrMalformedResponse, key)
		}
	}
	return fields, nil
}

func decodeForm(body []byte) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	fields := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			fields[key] = vs[0]
		}
	}
	return fields, nil
}
