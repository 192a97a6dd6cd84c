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

// Package gin provides Gin responses for the problem package.
//
// This package extends rivaas.dev/problem with github.com/gin-gonic/gin
// integration: direct problem responses, abort helpers, and error-handling
// middleware. Import it under an alias to avoid clashing with Gin itself:
//
//	import (
//		"github.com/gin-gonic/gin"
//
//		problemgin "rivaas.dev/problem/gin"
//	)
//
//	r := gin.New()
//	r.Use(problemgin.ErrorHandler())
//
//	r.GET("/orders/:id", func(c *gin.Context) {
//		order, err := load(c.Param("id"))
//		if err != nil {
//			problemgin.Abort(c, problem.FromStatus(http.StatusNotFound).
//				WithDetail("no such order"))
//			return
//		}
//		c.JSON(http.StatusOK, order)
//	})
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rivaas.dev/problem"
)

// Option configures problem responses and the error-handling middleware.
type Option func(*config)

// config holds the adapter configuration.
type config struct {
	negotiator     *problem.Negotiator
	formatter      *problem.Formatter
	fallbackStatus int
}

// WithNegotiator replaces the codec set used to answer requests.
// A nil negotiator keeps the default (JSON and XML, JSON preferred).
func WithNegotiator(n *problem.Negotiator) Option {
	return func(cfg *config) {
		if n != nil {
			cfg.negotiator = n
		}
	}
}

// WithFormatter replaces the formatter used to convert errors collected on
// the context into Problems.
//
// Example:
//
//	r.Use(problemgin.ErrorHandler(
//	    problemgin.WithFormatter(problem.NewFormatter("https://api.example.com/problems")),
//	))
func WithFormatter(f *problem.Formatter) Option {
	return func(cfg *config) {
		if f != nil {
			cfg.formatter = f
		}
	}
}

// WithFallbackStatus sets the HTTP status used when a problem has none.
// The default is 500.
func WithFallbackStatus(status int) Option {
	return func(cfg *config) {
		if status >= 100 && status <= 599 {
			cfg.fallbackStatus = status
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		negotiator:     problem.DefaultNegotiator(),
		formatter:      problem.NewFormatter(""),
		fallbackStatus: http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Respond writes p as the problem response negotiated from the request's
// Accept header. The handler chain keeps running; use [Abort] to stop it.
func Respond(c *gin.Context, p problem.Problem, opts ...Option) {
	respond(c, applyOptions(opts), p)
}

// Abort writes p as the negotiated problem response and aborts the
// remaining handler chain.
//
// Example:
//
//	problemgin.Abort(c, problem.FromStatus(http.StatusForbidden).
//		WithDetail("insufficient permissions"))
func Abort(c *gin.Context, p problem.Problem, opts ...Option) {
	respond(c, applyOptions(opts), p)
	c.Abort()
}

// AbortWithError formats err into a Problem, writes it, and aborts the
// remaining handler chain.
func AbortWithError(c *gin.Context, err error, opts ...Option) {
	cfg := applyOptions(opts)
	respond(c, cfg, cfg.formatter.Format(c.Request, err))
	c.Abort()
}

// ErrorHandler returns middleware that turns errors collected on the
// context into a problem response. It runs after the handler chain and does
// nothing when no errors were recorded or a response was already written;
// otherwise the last recorded error is formatted and written.
//
// Example:
//
//	r := gin.New()
//	r.Use(problemgin.ErrorHandler())
//
//	r.GET("/orders/:id", func(c *gin.Context) {
//		order, err := load(c.Param("id"))
//		if err != nil {
//			c.Error(problem.WrapStatus(err, http.StatusNotFound))
//			return
//		}
//		c.JSON(http.StatusOK, order)
//	})
func ErrorHandler(opts ...Option) gin.HandlerFunc {
	cfg := applyOptions(opts)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		respond(c, cfg, cfg.formatter.Format(c.Request, err))
	}
}

func respond(c *gin.Context, cfg *config, p problem.Problem) {
	resp, err := cfg.negotiator.Respond(p, c.GetHeader("Accept"))
	if err != nil {
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	status := p.Status
	if status == 0 {
		status = cfg.fallbackStatus
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(status, resp.ContentType, resp.Body)
}
