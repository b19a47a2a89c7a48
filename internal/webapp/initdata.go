package webapp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseInitData parses the URL-encoded payload delivered by the host.
//
// Only the shape is checked: auth_date and hash must be present, user and receiver must be
// well-formed JSON objects when present. The hash itself is not verified here.
func ParseInitData(raw string) (InitData, error) {
	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return InitData{}, fmt.Errorf("parse init data: %w", err)
	}

	data := InitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		Hash:       values.Get("hash"),
	}

	if v := values.Get("auth_date"); v != "" {
		authDate, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return InitData{}, fmt.Errorf("parse init data: auth_date: %w", err)
		}
		data.AuthDate = authDate
	}

	if data.User, err = parseUser(values, "user"); err != nil {
		return InitData{}, err
	}
	if data.Receiver, err = parseUser(values, "receiver"); err != nil {
		return InitData{}, err
	}

	if err := data.Validate(); err != nil {
		return InitData{}, fmt.Errorf("parse init data: %w", err)
	}
	return data, nil
}

func parseUser(values url.Values, key string) (*User, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("parse init data: %s: %w", key, err)
	}
	return &u, nil
}

// Encode renders d in the host's URL-encoded form. Keys are sorted, which is the order the
// host uses when it builds the check string.
func (d InitData) Encode() (string, error) {
	values := url.Values{}
	if d.QueryID != "" {
		values.Set("query_id", d.QueryID)
	}
	if d.StartParam != "" {
		values.Set("start_param", d.StartParam)
	}
	if d.AuthDate != 0 {
		values.Set("auth_date", strconv.FormatInt(d.AuthDate, 10))
	}
	if d.Hash != "" {
		values.Set("hash", d.Hash)
	}
	for key, u := range map[string]*User{"user": d.User, "receiver": d.Receiver} {
		if u == nil {
			continue
		}
		encoded, err := json.Marshal(u)
		if err != nil {
			return "", fmt.Errorf("encode init data: %s: %w", key, err)
		}
		values.Set(key, string(encoded))
	}
	return values.Encode(), nil
}
