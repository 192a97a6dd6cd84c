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

// Package echo provides Echo responses for the problem package.
//
// This package extends rivaas.dev/problem with github.com/labstack/echo/v4
// integration: direct problem responses and a centralized error handler.
// Import it under an alias to avoid clashing with Echo itself:
//
//	import (
//		"github.com/labstack/echo/v4"
//
//		problemecho "rivaas.dev/problem/echo"
//	)
//
//	e := echo.New()
//	e.HTTPErrorHandler = problemecho.ErrorHandler()
//
//	e.GET("/orders/:id", func(c echo.Context) error {
//		order, err := load(c.Param("id"))
//		if err != nil {
//			return problem.WrapStatus(err, http.StatusNotFound)
//		}
//		return c.JSON(http.StatusOK, order)
//	})
package echo

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"rivaas.dev/problem"
)

// Option configures problem responses and the error handler.
type Option func(*config)

// config holds the adapter configuration.
type config struct {
	negotiator     *problem.Negotiator
	formatter      *problem.Formatter
	fallbackStatus int
	logger         *slog.Logger
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

// WithFormatter replaces the formatter used to convert handler errors into
// Problems.
//
// Example:
//
//	e.HTTPErrorHandler = problemecho.ErrorHandler(
//	    problemecho.WithFormatter(problem.NewFormatter("https://api.example.com/problems")),
//	)
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

// WithLogger sets the logger for response write failures inside the error
// handler, where no caller is left to return them to. The default is
// [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		negotiator:     problem.DefaultNegotiator(),
		formatter:      problem.NewFormatter(""),
		fallbackStatus: http.StatusInternalServerError,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Respond writes p as the problem response negotiated from the request's
// Accept header.
//
// Example:
//
//	e.GET("/orders/:id", func(c echo.Context) error {
//		order, err := load(c.Param("id"))
//		if err != nil {
//			return problemecho.Respond(c, problem.FromStatus(http.StatusNotFound).
//				WithDetail("no such order"))
//		}
//		return c.JSON(http.StatusOK, order)
//	})
func Respond(c echo.Context, p problem.Problem, opts ...Option) error {
	return respond(c, applyOptions(opts), p)
}

// ErrorHandler returns an [echo.HTTPErrorHandler] that renders every error
// as a problem document. Echo's own *echo.HTTPError values, including the
// router's 404 and 405 errors, keep their status and message; other errors
// go through the configured [problem.Formatter].
//
// Example:
//
//	e := echo.New()
//	e.HTTPErrorHandler = problemecho.ErrorHandler()
func ErrorHandler(opts ...Option) echo.HTTPErrorHandler {
	cfg := applyOptions(opts)
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			err = &httpError{he: he}
		}
		p := cfg.formatter.Format(c.Request(), err)

		if werr := respond(c, cfg, p); werr != nil {
			cfg.logger.Error("problem response failed",
				slog.String("path", c.Request().URL.Path),
				slog.Any("error", werr),
			)
		}
	}
}

func respond(c echo.Context, cfg *config, p problem.Problem) error {
	resp, err := cfg.negotiator.Respond(p, c.Request().Header.Get("Accept"))
	if err != nil {
		return err
	}
	status := p.Status
	if status == 0 {
		status = cfg.fallbackStatus
	}
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.Blob(status, resp.ContentType, resp.Body)
}

// httpError adapts an *echo.HTTPError to the [problem.ErrorType] interface
// so the formatter resolves its status and message, while keeping the
// wrapped internal error visible to the rest of the error chain.
type httpError struct {
	he *echo.HTTPError
}

func (e *httpError) Error() string {
	switch msg := e.he.Message.(type) {
	case nil:
		return http.StatusText(e.he.Code)
	case string:
		return msg
	case error:
		return msg.Error()
	default:
		return fmt.Sprintf("%v", msg)
	}
}

func (e *httpError) HTTPStatus() int {
	return e.he.Code
}

func (e *httpError) Unwrap() error {
	return e.he.Internal
}
