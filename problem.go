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
	"net/http"
)

// TypeBlank is the default problem type. RFC 9457 instructs consumers to
// assume "about:blank" when the type member is absent, so Problems leave
// Type empty rather than emitting it.
const TypeBlank = "about:blank"

// Problem is an RFC 9457 problem details value: the five fixed members plus
// an ordered set of caller-defined extension members.
//
// Problem has value semantics. The With* builders return a modified copy and
// never touch the receiver, so a Problem can be declared once and reused as
// a template:
//
//	var errOutOfCredit = problem.New().
//	    WithType("https://example.com/probs/out-of-credit").
//	    WithTitle("You do not have enough credit.")
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    p := errOutOfCredit.
//	        WithStatus(http.StatusForbidden).
//	        WithDetail("Your current balance is 30, but that costs 50.")
//	    _ = problem.Write(w, r, p)
//	}
//
// A Problem built once is safe to share across concurrent request handlers:
// nothing in this package mutates one after construction.
type Problem struct {
	// Type is a URI reference identifying the problem category.
	// Empty means [TypeBlank].
	Type string

	// Title is a short human-readable summary. It should stay constant for
	// a given Type.
	Title string

	// Status is the HTTP status code. Zero means absent. When set it should
	// match the status line of the response carrying this Problem; the
	// response adapters take care of that.
	Status int

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string

	// Instance is a URI reference identifying this specific occurrence.
	Instance string

	ext extensions
}

// New returns an empty Problem. All fixed members are absent.
func New() Problem {
	return Problem{}
}

// FromStatus returns a Problem carrying the given status code, with Title
// defaulted to the standard status text.
//
// Example:
//
//	p := problem.FromStatus(http.StatusNotFound)
//	// p.Title == "Not Found", p.Status == 404
func FromStatus(status int) Problem {
	return Problem{Status: status, Title: http.StatusText(status)}
}

// WithType returns a copy with the type member set to uri.
func (p Problem) WithType(uri string) Problem {
	p.Type = uri
	return p
}

// WithTitle returns a copy with the title member set.
func (p Problem) WithTitle(title string) Problem {
	p.Title = title
	return p
}

// WithStatus returns a copy with the status member set.
func (p Problem) WithStatus(status int) Problem {
	p.Status = status
	return p
}

// WithDetail returns a copy with the detail member set.
func (p Problem) WithDetail(detail string) Problem {
	p.Detail = detail
	return p
}

// WithInstance returns a copy with the instance member set to uri.
func (p Problem) WithInstance(uri string) Problem {
	p.Instance = uri
	return p
}

// WithExtension returns a copy with an extension member appended.
//
// The value is serialized at insertion time, so any serialization failure
// surfaces here rather than during response rendering. Errors:
//   - [ErrReservedMember]: name is one of type, title, status, detail, instance
//   - [ErrDuplicateMember]: name was already inserted on this Problem
//   - [ErrUnsupportedValue]: value has no JSON representation
//
// Extension members keep their insertion order in serialized output.
func (p Problem) WithExtension(name string, value any) (Problem, error) {
	ext, err := p.ext.insert(name, value)
	if err != nil {
		return p, err
	}
	p.ext = ext

	return p, nil
}

// MustExtension is like [Problem.WithExtension] but panics on error.
// Use it for extension members known valid at compile time:
//
//	p := problem.FromStatus(http.StatusForbidden).
//	    MustExtension("balance", 30).
//	    MustExtension("accounts", []string{"/account/12345", "/account/67890"})
func (p Problem) MustExtension(name string, value any) Problem {
	next, err := p.WithExtension(name, value)
	if err != nil {
		panic("problem: " + err.Error())
	}

	return next
}

// WithExtensions returns a copy with one extension member per top-level
// field of v, in declaration order. v must serialize to a JSON object
// (typically a struct or a map):
//
//	type creditExt struct {
//	    Balance  int      `json:"balance"`
//	    Accounts []string `json:"accounts"`
//	}
//
//	p, err := problem.FromStatus(http.StatusForbidden).
//	    WithExtensions(creditExt{Balance: 30, Accounts: accounts})
//
// Errors mirror [Problem.WithExtension]; a v that does not serialize to an
// object fails with [ErrUnsupportedValue].
func (p Problem) WithExtensions(v any) (Problem, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return p, &MemberError{Err: ErrUnsupportedValue}
	}

	names, values, err := objectMembers(raw)
	if err != nil {
		return p, &MemberError{Err: ErrUnsupportedValue}
	}

	next := p
	for i, name := range names {
		if reservedMember(name) {
			return p, &MemberError{Name: name, Err: ErrReservedMember}
		}
		if next.ext.has(name) {
			return p, &MemberError{Name: name, Err: ErrDuplicateMember}
		}
		next.ext = next.ext.append(member{name: name, value: treeValue(values[i]), raw: values[i]})
	}

	return next, nil
}

// Extension returns the value stored under name and whether it exists.
// For Problems built in memory this is the value given to WithExtension;
// for decoded Problems it is the generic decoded form (string, bool, nil,
// [json.Number], []any or map[string]any).
func (p Problem) Extension(name string) (any, bool) {
	return p.ext.get(name)
}

// ExtensionNames returns extension member names in insertion order.
func (p Problem) ExtensionNames() []string {
	return p.ext.names()
}

// TypeOrDefault returns the type member, or [TypeBlank] when absent.
func (p Problem) TypeOrDefault() string {
	if p.Type == "" {
		return TypeBlank
	}

	return p.Type
}

// Error implements the error interface so a Problem can travel through
// ordinary error returns and be recovered with [errors.As].
func (p Problem) Error() string {
	switch {
	case p.Title != "" && p.Detail != "":
		return p.Title + ": " + p.Detail
	case p.Title != "":
		return p.Title
	case p.Detail != "":
		return p.Detail
	case p.Status != 0:
		return http.StatusText(p.Status)
	}

	return TypeBlank
}

// HTTPStatus implements [ErrorType], letting a Problem used as an error
// carry its status through a [Formatter].
func (p Problem) HTTPStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}

	return p.Status
}
