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
	"encoding/json"
	"strconv"
)

// member is a single extension member. The concrete value is captured at
// insertion time together with its serialized form, so encoding later is
// infallible and byte-stable regardless of the value's type.
type member struct {
	name  string
	value any
	raw   json.RawMessage
}

// extensions is an ordered, append-only store of extension members.
// Member names are unique and never one of the five reserved names.
type extensions struct {
	members []member
}

// reservedMember reports whether name is one of the five fixed member names
// defined by RFC 9457.
func reservedMember(name string) bool {
	switch name {
	case "type", "title", "status", "detail", "instance":
		return true
	}

	return false
}

// has reports whether a member with the given name exists.
func (e extensions) has(name string) bool {
	for _, m := range e.members {
		if m.name == name {
			return true
		}
	}

	return false
}

// get returns the value stored under name.
func (e extensions) get(name string) (any, bool) {
	for _, m := range e.members {
		if m.name == name {
			return m.value, true
		}
	}

	return nil, false
}

// names returns member names in insertion order.
func (e extensions) names() []string {
	if len(e.members) == 0 {
		return nil
	}

	names := make([]string, len(e.members))
	for i, m := range e.members {
		names[i] = m.name
	}

	return names
}

// insert validates name and value and returns a new store with the member
// appended. The receiver is never modified: the backing slice is cloned so
// copies of a Problem taken before the insertion stay unchanged.
func (e extensions) insert(name string, value any) (extensions, error) {
	if reservedMember(name) {
		return e, &MemberError{Name: name, Err: ErrReservedMember}
	}
	if e.has(name) {
		return e, &MemberError{Name: name, Err: ErrDuplicateMember}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return e, &MemberError{Name: name, Err: ErrUnsupportedValue}
	}

	return e.append(member{name: name, value: value, raw: raw}), nil
}

// insertDecoded appends a member produced by a codec's decode path.
// The serialized form is already known, so no marshaling happens here.
// Duplicates signal a malformed input document rather than a caller bug.
func (e extensions) insertDecoded(name string, value any, raw json.RawMessage) (extensions, error) {
	if e.has(name) {
		return e, malformedError("duplicate member " + strconv.Quote(name))
	}

	return e.append(member{name: name, value: value, raw: raw}), nil
}

// append clones the backing slice and adds m.
func (e extensions) append(m member) extensions {
	members := make([]member, len(e.members), len(e.members)+1)
	copy(members, e.members)

	return extensions{members: append(members, m)}
}
