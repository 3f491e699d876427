// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexString decodes a JSON string or number into its textual form. Several
// APIs report years as 2015 in one record and "2015" in the next.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or numeric string. A missing or
// unparseable value leaves it nil.
type flexInt struct {
	v *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		f.v = nil
		return nil
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		f.v = nil
		return nil
	}
	i := int(n)
	f.v = &i
	return nil
}
