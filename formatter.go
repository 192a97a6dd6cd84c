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
	"crypto/rand"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrorType allows errors to declare their own HTTP status code.
// Domain errors can optionally implement this interface to control the
// status of the problem they format into.
//
// Example:
//
//	type ValidationError struct {
//		Message string
//	}
//
//	func (e ValidationError) Error() string {
//		return e.Message
//	}
//
//	func (e ValidationError) HTTPStatus() int {
//		return http.StatusBadRequest
//	}
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
// Domain errors can implement this interface to expose field-level details,
// included as the "errors" extension member.
//
// Example:
//
//	type ValidationError struct {
//		Message string
//		Fields  []FieldError
//	}
//
//	func (e ValidationError) Error() string {
//		return e.Message
//	}
//
//	func (e ValidationError) Details() any {
//		return e.Fields
//	}
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code, included as
// the "code" extension member and used to derive the problem type URI.
//
// Example:
//
//	type NotFoundError struct {
//		Resource string
//	}
//
//	func (e NotFoundError) Error() string {
//		return fmt.Sprintf("%s not found", e.Resource)
//	}
//
//	func (e NotFoundError) Code() string {
//		return "resource-not-found"
//	}
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// Formatter converts Go errors into Problems. It inspects the error chain
// for the [ErrorType], [ErrorDetails], and [ErrorCode] interfaces and fills
// the problem from what it finds.
//
// Example:
//
//	formatter := problem.NewFormatter("https://api.example.com/problems")
//	p := formatter.Format(req, err)
//	problem.Write(w, req, p)
type Formatter struct {
	// BaseURL is prepended to error codes to create problem type URIs.
	// Example: "https://api.example.com/problems" + "/validation-error"
	BaseURL string

	// TypeResolver maps errors to problem type URIs.
	// If nil, the type is derived from the ErrorCode interface.
	TypeResolver func(err error) string

	// StatusResolver determines HTTP status from an error.
	// If nil, the ErrorType interface is consulted, then 500.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates unique IDs for error correlation.
	// If nil, [GenerateUUIDv7] is used.
	ErrorIDGenerator func() string

	// DisableErrorID disables the error_id extension member.
	DisableErrorID bool
}

// NewFormatter creates a formatter. The baseURL is prepended to error codes
// to create problem type URIs; it may be empty, in which case codes are used
// as type URIs verbatim.
//
// Example:
//
//	formatter := problem.NewFormatter("https://api.example.com/problems")
//	p := formatter.Format(req, err)
func NewFormatter(baseURL string) *Formatter {
	return &Formatter{
		BaseURL: baseURL,
	}
}

// Format converts an error into a Problem. It never fails: an extension
// that cannot be attached is dropped rather than failing the response.
//
// When the error chain already carries a [Problem], that problem is used
// as-is and only enriched: a missing status is resolved, the instance is
// filled from the request path, and the error_id member is added.
//
// For any other error the status comes from the StatusResolver or the
// [ErrorType] interface, the type URI from the TypeResolver or the
// [ErrorCode] interface, the title from the status text, and the detail
// from the error message. [ErrorDetails] and [ErrorCode] values are
// attached as the "errors" and "code" extension members.
//
// A nil req is tolerated and leaves the instance unset.
func (f *Formatter) Format(req *http.Request, err error) Problem {
	var p Problem
	if errors.As(err, &p) {
		if p.Status == 0 {
			p = p.WithStatus(f.determineStatus(err))
		}
		return f.enrich(req, p, err)
	}

	p = FromStatus(f.determineStatus(err))
	if problemType := f.determineType(err); problemType != "" {
		p = p.WithType(problemType)
	}
	if err != nil {
		p = p.WithDetail(err.Error())
	}
	return f.enrich(req, p, err)
}

// enrich attaches the request path and the extension members shared by both
// Format paths.
func (f *Formatter) enrich(req *http.Request, p Problem, err error) Problem {
	if p.Instance == "" && req != nil && req.URL != nil {
		p = p.WithInstance(req.URL.Path)
	}

	if !f.DisableErrorID {
		gen := f.ErrorIDGenerator
		if gen == nil {
			gen = GenerateUUIDv7
		}
		p = extend(p, "error_id", gen())
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		p = extend(p, "errors", detailed.Details())
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p = extend(p, "code", coded.Code())
	}
	return p
}

// extend adds an extension member, keeping the problem unchanged when the
// member is already present or the value cannot be serialized.
func extend(p Problem, name string, value any) Problem {
	next, err := p.WithExtension(name, value)
	if err != nil {
		return p
	}
	return next
}

// determineStatus resolves the HTTP status for an error: StatusResolver
// first, then the [ErrorType] interface, then 500.
func (f *Formatter) determineStatus(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// determineType resolves the problem type URI for an error: TypeResolver
// first, then the [ErrorCode] interface combined with BaseURL. An empty
// result leaves the type member absent, which consumers read as
// [TypeBlank].
func (f *Formatter) determineType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		code := coded.Code()
		if f.BaseURL != "" {
			return f.BaseURL + "/" + code
		}
		return code
	}

	return ""
}

// GenerateUUIDv7 generates a UUID v7 string for error IDs. UUID v7 is
// time-ordered and lexicographically sortable (RFC 9562). This is the
// default error ID generator.
func GenerateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ulidEntropy is a thread-safe entropy source for ULID generation.
// It provides monotonic ordering within the same millisecond.
var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

// GenerateULID generates a ULID string for error IDs: time-ordered,
// lexicographically sortable, and a compact 26 characters.
//
// Example:
//
//	formatter := problem.NewFormatter("")
//	formatter.ErrorIDGenerator = problem.GenerateULID
func GenerateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// WrapStatus wraps an error with an explicit HTTP status code. The wrapped
// error implements the [ErrorType] interface, so a [Formatter] resolves its
// status without any custom resolver. If err is nil, the status text is
// used as the error message.
//
// Example:
//
//	return problem.WrapStatus(err, http.StatusNotFound)
//	return problem.WrapStatus(nil, http.StatusConflict)
func WrapStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// statusError wraps an error with an explicit status code.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}
