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

// Package problem implements RFC 9457 problem details: a standard,
// machine-readable shape for HTTP error responses.
//
// The package is built around the [Problem] value type, which carries the
// five reserved members (type, title, status, detail, instance) plus ordered
// extension members. Problems are immutable values: every builder returns a
// copy, so package-level problem templates can be shared and specialized per
// request without synchronization.
//
// Serialization is handled by codecs ([JSONCodec] for application/problem+json,
// [XMLCodec] for application/problem+xml), and a [Negotiator] picks the codec
// matching a request's Accept header. Negotiation never fails: a request that
// accepts none of the registered formats still gets a problem response in the
// default format.
//
// # Quick Start
//
//	package main
//
//	import (
//		"net/http"
//
//		"rivaas.dev/problem"
//	)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		order, err := load(r.PathValue("id"))
//		if err != nil {
//			problem.Write(w, r, problem.FromStatus(http.StatusNotFound).
//				WithDetail("no such order"))
//			return
//		}
//		// ...
//	}
//
// [Write] negotiates JSON or XML from the Accept header, sets the
// Content-Type, and writes the encoded problem with the problem's status.
//
// # Extension Members
//
// Extensions carry problem-specific data beyond the reserved members. They
// keep insertion order on the wire and are validated when added: reserved
// names, duplicates, and unserializable values are construction errors, not
// encode-time surprises.
//
//	p, err := problem.FromStatus(http.StatusForbidden).
//		WithType("https://example.com/probs/out-of-credit").
//		WithDetail("Your current balance is 30, but that costs 50.").
//		WithExtension("balance", 30)
//
// [Problem.MustExtension] panics instead of returning an error, for
// package-level templates with known-good names.
//
// # Formatting Errors
//
// A [Formatter] turns arbitrary Go errors into Problems. Domain errors can
// implement optional interfaces to steer the mapping:
//
//   - [ErrorType]: declare the HTTP status code
//   - [ErrorDetails]: provide structured details (the "errors" member)
//   - [ErrorCode]: provide a machine-readable code (the "code" member and
//     the problem type URI)
//
//	formatter := problem.NewFormatter("https://api.example.com/problems")
//	p := formatter.Format(r, err)
//	problem.Write(w, r, p)
//
// Each formatted problem carries an error_id extension member for log
// correlation, generated as a UUID v7 by default.
//
// # Framework Adapters
//
// The core package speaks net/http. Subpackages adapt the same Problems to
// other frameworks:
//
//   - rivaas.dev/problem/gin: Gin responses and error-handling middleware
//   - rivaas.dev/problem/echo: Echo responses and a centralized error handler
//
// # Parsing Problem Documents
//
// Clients decode problem responses with the same codecs:
//
//	p, err := problem.JSONCodec{}.Decode(body)
//
// Decoding is strict ([ErrMalformedDocument], [ErrTypeMismatch]) and
// lossless: extension members keep their order and raw values, so a decoded
// problem re-encodes identically.
package problem
