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
	"errors"
	"fmt"
	"net/http"
)

// Static errors for problem construction and decoding.
var (
	// ErrReservedMember is returned when an extension member uses one of the
	// five reserved names: type, title, status, detail, instance.
	ErrReservedMember = errors.New("extension member name is reserved")

	// ErrDuplicateMember is returned when an extension member name is
	// inserted twice. Overwrites are rejected rather than applied silently
	// so caller bugs surface at construction time.
	ErrDuplicateMember = errors.New("extension member already present")

	// ErrUnsupportedValue is returned when an extension value cannot be
	// serialized (for example a channel or a function).
	ErrUnsupportedValue = errors.New("extension value cannot be serialized")

	// ErrMalformedDocument is returned when decoded bytes are not a
	// structurally valid problem document for the target format.
	ErrMalformedDocument = errors.New("malformed problem document")

	// ErrTypeMismatch is returned when a reserved member decodes to the
	// wrong underlying type (for example a non-integer status).
	ErrTypeMismatch = errors.New("member has wrong type")

	// ErrNoCodec is returned when a Negotiator is constructed without any
	// codecs. This is a configuration error, not a request-time condition.
	ErrNoCodec = errors.New("no codecs configured")
)

// MemberError reports a rejected extension member insertion.
// It wraps one of the static construction errors ([ErrReservedMember],
// [ErrDuplicateMember], [ErrUnsupportedValue]) for use with [errors.Is]:
//
//	_, err := p.WithExtension("status", 404)
//	if errors.Is(err, problem.ErrReservedMember) {
//	    // caller bug: reserved name
//	}
type MemberError struct {
	Name string // Extension member name that was rejected
	Err  error  // Underlying static error
}

// Error returns a formatted error message.
func (e *MemberError) Error() string {
	return fmt.Sprintf("extension member %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *MemberError) Unwrap() error {
	return e.Err
}

// DecodeError reports a failure to decode a problem document.
// It wraps [ErrMalformedDocument] or [ErrTypeMismatch] and names the member
// that failed, when one can be identified.
//
// Use [errors.As] to recover decode context:
//
//	var decErr *problem.DecodeError
//	if errors.As(err, &decErr) {
//	    fmt.Printf("member %q: %s\n", decErr.Member, decErr.Reason)
//	}
type DecodeError struct {
	Member string // Member that failed decoding, empty for document-level errors
	Reason string // Human-readable reason for failure
	Err    error  // Underlying static error
}

// Error returns a formatted error message.
func (e *DecodeError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("decoding member %q: %s", e.Member, e.Reason)
	}

	return "decoding problem document: " + e.Reason
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements [ErrorType]. Decode failures come from client input,
// so they map to 400 Bad Request when fed back through a [Formatter].
func (e *DecodeError) HTTPStatus() int {
	return http.StatusBadRequest
}

// Code implements [ErrorCode].
func (e *DecodeError) Code() string {
	if errors.Is(e.Err, ErrTypeMismatch) {
		return "type_mismatch"
	}

	return "malformed_document"
}

// malformedError builds a document-level DecodeError.
func malformedError(reason string) *DecodeError {
	return &DecodeError{Reason: reason, Err: ErrMalformedDocument}
}

// mismatchError builds a member-level DecodeError for a type violation.
func mismatchError(member, reason string) *DecodeError {
	return &DecodeError{Member: member, Reason: reason, Err: ErrTypeMismatch}
}
