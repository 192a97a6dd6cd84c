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

//go:build !integration

package echo

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/problem"
)

// codedError carries a machine-readable code for formatter tests.
type codedError struct {
	message string
	code    string
}

func (e *codedError) Error() string { return e.message }
func (e *codedError) Code() string  { return e.code }

// quietFormatter keeps response bodies deterministic in tests.
func quietFormatter() *problem.Formatter {
	return &problem.Formatter{DisableErrorID: true}
}

func TestRespond(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.GET("/orders/:id", func(c echo.Context) error {
			return Respond(c, problem.FromStatus(http.StatusNotFound).WithDetail("no such order"))
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, problem.MediaTypeJSON, rec.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, `{"title":"Not Found","status":404,"detail":"no such order"}`, rec.Body.String())
	})

	t.Run("xml via accept header", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.GET("/orders/:id", func(c echo.Context) error {
			return Respond(c, problem.FromStatus(http.StatusNotFound).WithDetail("no such order"))
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
		req.Header.Set("Accept", "application/problem+xml")
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, problem.MediaTypeXML, rec.Header().Get("Content-Type"))
		assert.Equal(t,
			`<problem xmlns="urn:ietf:rfc:7807"><title>Not Found</title><status>404</status><detail>no such order</detail></problem>`,
			rec.Body.String())
	})

	t.Run("fallback status", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		require.NoError(t, Respond(c, problem.New().WithDetail("boom")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, `{"detail":"boom"}`, rec.Body.String(), "the body is not rewritten")
	})

	t.Run("head request gets no body", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodHead, "/orders/42", nil), rec)

		require.NoError(t, Respond(c, problem.FromStatus(http.StatusNotFound)))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("encode failure surfaces", func(t *testing.T) {
		t.Parallel()

		xmlOnly := problem.MustNegotiator(problem.XMLCodec{})
		p := problem.FromStatus(http.StatusBadRequest).MustExtension("bad name", 1)

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		err := Respond(c, p, WithNegotiator(xmlOnly))
		require.Error(t, err)
		assert.ErrorIs(t, err, problem.ErrUnsupportedValue)
	})
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("formats handler errors", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithFormatter(quietFormatter()))
		e.GET("/orders/:id", func(c echo.Context) error {
			return problem.WrapStatus(stderrors.New("order 42 not found"), http.StatusNotFound)
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, problem.MediaTypeJSON, rec.Header().Get("Content-Type"))
		assert.Equal(t,
			`{"title":"Not Found","status":404,"detail":"order 42 not found","instance":"/orders/42"}`,
			rec.Body.String())
	})

	t.Run("problem returned as error passes through", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithFormatter(quietFormatter()))
		e.GET("/orders/:id", func(c echo.Context) error {
			return problem.FromStatus(http.StatusConflict).WithDetail("edit conflict")
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t,
			`{"title":"Conflict","status":409,"detail":"edit conflict","instance":"/orders/42"}`,
			rec.Body.String())
	})

	t.Run("echo http error keeps status and message", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithFormatter(quietFormatter()))
		e.GET("/brew", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusTeapot, "short and stout")
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t,
			`{"title":"I'm a teapot","status":418,"detail":"short and stout","instance":"/brew"}`,
			rec.Body.String())
	})

	t.Run("router 404 becomes a problem", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithFormatter(quietFormatter()))

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, problem.MediaTypeJSON, rec.Header().Get("Content-Type"))
		assert.Equal(t,
			`{"title":"Not Found","status":404,"detail":"Not Found","instance":"/missing"}`,
			rec.Body.String())
	})

	t.Run("internal error drives code and type", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithFormatter(&problem.Formatter{
			BaseURL:        "https://api.example.com/problems",
			DisableErrorID: true,
		}))
		e.POST("/users", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").
				SetInternal(&codedError{message: "bad email", code: "invalid_input"})
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		p, err := (problem.JSONCodec{}).Decode(rec.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/problems/invalid_input", p.Type)
		assert.Equal(t, "invalid payload", p.Detail)

		code, ok := p.Extension("code")
		require.True(t, ok)
		assert.Equal(t, "invalid_input", code)
	})

	t.Run("negotiates xml", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler()
		e.GET("/", func(c echo.Context) error {
			return stderrors.New("something went wrong")
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "application/problem+xml")
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, problem.MediaTypeXML, rec.Header().Get("Content-Type"))
	})

	t.Run("committed response is left alone", func(t *testing.T) {
		t.Parallel()

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, c.String(http.StatusOK, "done"))

		ErrorHandler()(stderrors.New("late failure"), c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "done", rec.Body.String())
	})

	t.Run("write failure is logged", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		xmlOnly := problem.MustNegotiator(problem.XMLCodec{})

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler(WithNegotiator(xmlOnly), WithLogger(logger))
		e.GET("/", func(c echo.Context) error {
			return problem.FromStatus(http.StatusBadRequest).MustExtension("bad name", 1)
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Contains(t, buf.String(), "problem response failed")
	})
}

func TestOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := applyOptions(nil)
		assert.Same(t, problem.DefaultNegotiator(), cfg.negotiator)
		assert.Equal(t, http.StatusInternalServerError, cfg.fallbackStatus)
		assert.NotNil(t, cfg.formatter)
		assert.NotNil(t, cfg.logger)
	})

	t.Run("nil options keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := applyOptions([]Option{
			WithNegotiator(nil),
			WithFormatter(nil),
			WithLogger(nil),
			WithFallbackStatus(0),
		})
		assert.Same(t, problem.DefaultNegotiator(), cfg.negotiator)
		assert.NotNil(t, cfg.formatter)
		assert.NotNil(t, cfg.logger)
		assert.Equal(t, http.StatusInternalServerError, cfg.fallbackStatus)
	})
}
