// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// JSONCodec reads and writes application/problem+json documents.
//
// Encoding emits the fixed members first, in the order type, title, status,
// detail, instance, followed by extension members in insertion order. Absent
// fixed members are omitted entirely, never written as null. Extension values
// are spliced in from the raw JSON captured when the member was added, so a
// decoded document re-encodes byte-for-byte identical member by member.
//
// Decoding is strict: the top-level value must be a JSON object, duplicate
// members are rejected, and a fixed member carrying the wrong JSON type is
// an error rather than being silently dropped. Unknown members are collected
// as extensions in document order.
type JSONCodec struct{}

// MediaType returns [MediaTypeJSON].
func (JSONCodec) MediaType() string {
	return MediaTypeJSON
}

// Encode serializes p as a JSON object. It never fails for Problems built
// through this package: extension values were validated and captured as raw
// JSON at insertion time.
func (JSONCodec) Encode(p Problem) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	n := 0
	member := func(name string) {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.WriteString(encodeJSONString(name))
		buf.WriteByte(':')
	}

	if p.Type != "" {
		member("type")
		buf.WriteString(encodeJSONString(p.Type))
	}
	if p.Title != "" {
		member("title")
		buf.WriteString(encodeJSONString(p.Title))
	}
	if p.Status != 0 {
		member("status")
		buf.WriteString(strconv.Itoa(p.Status))
	}
	if p.Detail != "" {
		member("detail")
		buf.WriteString(encodeJSONString(p.Detail))
	}
	if p.Instance != "" {
		member("instance")
		buf.WriteString(encodeJSONString(p.Instance))
	}
	for _, m := range p.ext.members {
		member(m.name)
		buf.Write(m.raw)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a JSON problem document. Fixed members may appear in any
// order and at most once; every other member becomes an extension, preserving
// document order. Numbers inside extension values decode as [json.Number] so
// no precision is lost on re-encode.
func (JSONCodec) Decode(data []byte) (Problem, error) {
	names, values, err := objectMembers(data)
	if err != nil {
		return Problem{}, malformedError(err.Error())
	}

	var p Problem
	seen := make(map[string]bool, 5)
	for i, name := range names {
		raw := values[i]
		if reservedMember(name) {
			if seen[name] {
				return Problem{}, malformedError("duplicate member " + strconv.Quote(name))
			}
			seen[name] = true
		}

		switch name {
		case "type":
			p.Type, err = decodeStringMember(name, raw)
		case "title":
			p.Title, err = decodeStringMember(name, raw)
		case "status":
			p.Status, err = decodeStatusMember(raw)
		case "detail":
			p.Detail, err = decodeStringMember(name, raw)
		case "instance":
			p.Instance, err = decodeStringMember(name, raw)
		default:
			p.ext, err = p.ext.insertDecoded(name, treeValue(raw), raw)
		}
		if err != nil {
			return Problem{}, err
		}
	}
	return p, nil
}

// decodeStringMember rejects any JSON value that is not a string, including
// null: a fixed member is either absent or a string, never explicitly null.
func decodeStringMember(name string, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isJSONNull(raw) {
		return "", mismatchError(name, "expected a JSON string")
	}
	return s, nil
}

// decodeStatusMember accepts only an integer in the valid HTTP status range.
// Floats, strings (including numeric strings, which [json.Number] would
// otherwise tolerate), and out-of-range values are type mismatches, not
// silently coerced or dropped.
func decodeStatusMember(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, mismatchError("status", "expected a JSON number")
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return 0, mismatchError("status", "expected a JSON number")
	}
	n, err := num.Int64()
	if err != nil {
		return 0, mismatchError("status", "expected an integer")
	}
	if n < 100 || n > 599 {
		return 0, mismatchError("status", fmt.Sprintf("value %d outside the HTTP status range", n))
	}
	return int(n), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// objectMembers splits a JSON object into its top-level member names and raw
// values, in document order. It is the shared front end of [JSONCodec.Decode]
// and [Problem.WithExtensions]. Duplicate names are returned as-is; callers
// decide whether duplicates are an error.
func objectMembers(data []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("top-level value is %s, expected an object", tokenKind(tok))
	}

	var names []string
	var values []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid JSON: object key is %s", tokenKind(tok))
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("invalid value for member %q: %w", name, err)
		}
		names = append(names, name)
		values = append(values, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("trailing data after top-level object")
	}
	return names, values, nil
}

// treeValue materializes raw JSON as a generic Go value: objects become
// map[string]any, arrays []any, numbers [json.Number], plus string, bool,
// and nil. The raw bytes remain the source of truth for re-encoding; the
// tree only backs [Problem.Extension] lookups.
func treeValue(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func tokenKind(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			return "an array"
		}
		return "a " + string(t)
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return "unexpected"
	}
}

func encodeJSONString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
