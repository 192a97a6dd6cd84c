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

import "net/http"

// WriteOption configures [Write] and [Handler].
type WriteOption func(*writeConfig)

type writeConfig struct {
	negotiator     *Negotiator
	fallbackStatus int
	header         http.Header
}

func defaultWriteConfig() writeConfig {
	return writeConfig{
		negotiator:     defaultNegotiator,
		fallbackStatus: http.StatusInternalServerError,
	}
}

// WithNegotiator replaces the codec set used to answer the request.
// A nil negotiator keeps the default.
//
// Example:
//
//	jsonOnly := problem.MustNegotiator(problem.JSONCodec{})
//	problem.Write(w, r, p, problem.WithNegotiator(jsonOnly))
func WithNegotiator(n *Negotiator) WriteOption {
	return func(cfg *writeConfig) {
		if n != nil {
			cfg.negotiator = n
		}
	}
}

// WithFallbackStatus sets the HTTP status used when the problem has none.
// The default is 500. Values outside the valid status range are ignored.
func WithFallbackStatus(status int) WriteOption {
	return func(cfg *writeConfig) {
		if status >= 100 && status <= 599 {
			cfg.fallbackStatus = status
		}
	}
}

// WithHeader adds a response header, for example Retry-After on a 429 or 503
// problem. The Content-Type header cannot be overridden; it always reflects
// the negotiated codec.
func WithHeader(key string, values ...string) WriteOption {
	return func(cfg *writeConfig) {
		if cfg.header == nil {
			cfg.header = http.Header{}
		}
		for _, v := range values {
			cfg.header.Add(key, v)
		}
	}
}

// Write negotiates a representation from the request's Accept header and
// writes p to w. With no options it serves JSON and XML, preferring JSON,
// and responds with 500 when the problem carries no status.
//
// The returned error is either a codec encode error, reported before
// anything is written, or a write error on w, after the status and headers
// are out.
//
// Example:
//
//	func getUser(w http.ResponseWriter, r *http.Request) {
//		user, err := lookup(r.PathValue("id"))
//		if err != nil {
//			problem.Write(w, r, problem.FromStatus(http.StatusNotFound).
//				WithDetail("no such user"))
//			return
//		}
//		// ...
//	}
func Write(w http.ResponseWriter, r *http.Request, p Problem, opts ...WriteOption) error {
	cfg := defaultWriteConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var accept string
	if r != nil {
		accept = r.Header.Get("Accept")
	}
	codec := cfg.negotiator.Negotiate(accept)
	body, err := codec.Encode(p)
	if err != nil {
		return err
	}

	h := w.Header()
	for key, values := range cfg.header {
		for _, v := range values {
			h.Add(key, v)
		}
	}
	h.Set("Content-Type", codec.MediaType())
	h.Set("X-Content-Type-Options", "nosniff")

	status := p.Status
	if status == 0 {
		status = cfg.fallbackStatus
	}
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// Handler returns an [http.Handler] that always responds with p. Useful for
// fixed error routes such as a not-found or method-not-allowed handler.
//
// Example:
//
//	mux.Handle("/", problem.Handler(problem.FromStatus(http.StatusNotFound)))
func Handler(p Problem, opts ...WriteOption) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = Write(w, r, p, opts...)
	})
}
