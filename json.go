package httpserver

import (
	"encoding/json"
	"errors"
)

// ParseJSON decodes a request body as JSON into a generic value.
// It returns an error if the body is absent or not valid JSON; handlers
// typically convert that into a 400 [HTTPError].
func ParseJSON(body *string) (any, error) {
	if body == nil {
		return nil, errors.New("request has no body")
	}
	var value any
	if err := json.Unmarshal([]byte(*body), &value); err != nil {
		return nil, err
	}
	return value, nil
}
