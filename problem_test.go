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

package problem

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	p := New()

	assert.Empty(t, p.Type, "Type")
	assert.Empty(t, p.Title, "Title")
	assert.Zero(t, p.Status, "Status")
	assert.Empty(t, p.Detail, "Detail")
	assert.Empty(t, p.Instance, "Instance")
	assert.Empty(t, p.ExtensionNames(), "ExtensionNames")
}

func TestFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantTitle string
	}{
		{name: "not found", status: http.StatusNotFound, wantTitle: "Not Found"},
		{name: "teapot", status: http.StatusTeapot, wantTitle: "I'm a teapot"},
		{name: "internal", status: http.StatusInternalServerError, wantTitle: "Internal Server Error"},
		{name: "unknown status", status: 599, wantTitle: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := FromStatus(tt.status)

			assert.Equal(t, tt.status, p.Status, "Status")
			assert.Equal(t, tt.wantTitle, p.Title, "Title")
		})
	}
}

func TestProblem_Builders(t *testing.T) {
	t.Parallel()

	p := New().
		WithType("https://example.com/probs/out-of-credit").
		WithTitle("You do not have enough credit.").
		WithStatus(http.StatusForbidden).
		WithDetail("Your current balance is 30, but that costs 50.").
		WithInstance("/account/12345/msgs/abc")

	assert.Equal(t, "https://example.com/probs/out-of-credit", p.Type)
	assert.Equal(t, "You do not have enough credit.", p.Title)
	assert.Equal(t, http.StatusForbidden, p.Status)
	assert.Equal(t, "Your current balance is 30, but that costs 50.", p.Detail)
	assert.Equal(t, "/account/12345/msgs/abc", p.Instance)
}

func TestProblem_TemplateReuse(t *testing.T) {
	t.Parallel()

	template := FromStatus(http.StatusNotFound).
		WithType("https://example.com/probs/missing").
		MustExtension("hint", "check the id")

	a := template.WithDetail("order 1 does not exist").MustExtension("order", 1)
	b := template.WithDetail("order 2 does not exist").MustExtension("order", 2)

	// The template never changes, regardless of what its copies do.
	assert.Empty(t, template.Detail, "template Detail")
	assert.Equal(t, []string{"hint"}, template.ExtensionNames(), "template extensions")

	assert.Equal(t, "order 1 does not exist", a.Detail)
	assert.Equal(t, "order 2 does not exist", b.Detail)

	aOrder, ok := a.Extension("order")
	require.True(t, ok)
	assert.Equal(t, 1, aOrder)

	bOrder, ok := b.Extension("order")
	require.True(t, ok)
	assert.Equal(t, 2, bOrder)
}

func TestProblem_WithExtension(t *testing.T) {
	t.Parallel()

	p, err := FromStatus(http.StatusForbidden).WithExtension("balance", 30)
	require.NoError(t, err)

	p, err = p.WithExtension("accounts", []string{"/account/12345", "/account/67890"})
	require.NoError(t, err)

	assert.Equal(t, []string{"balance", "accounts"}, p.ExtensionNames(), "insertion order")

	balance, ok := p.Extension("balance")
	require.True(t, ok)
	assert.Equal(t, 30, balance)

	_, ok = p.Extension("missing")
	assert.False(t, ok)
}

func TestProblem_WithExtension_ReservedNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"type", "title", "status", "detail", "instance"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := FromStatus(http.StatusBadRequest)
			_, err := p.WithExtension(name, "x")

			require.ErrorIs(t, err, ErrReservedMember)

			var memberErr *MemberError
			require.ErrorAs(t, err, &memberErr)
			assert.Equal(t, name, memberErr.Name)
		})
	}
}

func TestProblem_WithExtension_Duplicate(t *testing.T) {
	t.Parallel()

	p, err := New().WithExtension("trace_id", "abc123")
	require.NoError(t, err)

	// A duplicate insertion fails; it never overwrites.
	_, err = p.WithExtension("trace_id", "def456")
	require.ErrorIs(t, err, ErrDuplicateMember)

	v, ok := p.Extension("trace_id")
	require.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestProblem_WithExtension_UnsupportedValue(t *testing.T) {
	t.Parallel()

	_, err := New().WithExtension("bad", make(chan int))
	require.ErrorIs(t, err, ErrUnsupportedValue)

	var memberErr *MemberError
	require.ErrorAs(t, err, &memberErr)
	assert.Equal(t, "bad", memberErr.Name)
}

func TestProblem_WithExtension_FailureLeavesProblemUnchanged(t *testing.T) {
	t.Parallel()

	p := New().MustExtension("balance", 30)

	got, err := p.WithExtension("status", 404)
	require.Error(t, err)
	assert.Equal(t, []string{"balance"}, got.ExtensionNames())

	got, err = p.WithExtension("balance", 50)
	require.Error(t, err)
	assert.Equal(t, []string{"balance"}, got.ExtensionNames())
}

func TestProblem_MustExtension_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		New().MustExtension("status", 500)
	})
}

func TestProblem_WithExtensions(t *testing.T) {
	t.Parallel()

	type creditExt struct {
		Balance  int      `json:"balance"`
		Accounts []string `json:"accounts"`
	}

	p, err := FromStatus(http.StatusForbidden).WithExtensions(creditExt{
		Balance:  30,
		Accounts: []string{"/account/12345", "/account/67890"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"balance", "accounts"}, p.ExtensionNames(), "declaration order")
}

func TestProblem_WithExtensions_Errors(t *testing.T) {
	t.Parallel()

	t.Run("reserved field", func(t *testing.T) {
		t.Parallel()

		_, err := New().WithExtensions(map[string]any{"status": 404})
		require.ErrorIs(t, err, ErrReservedMember)
	})

	t.Run("duplicate of existing member", func(t *testing.T) {
		t.Parallel()

		p := New().MustExtension("balance", 30)
		_, err := p.WithExtensions(map[string]any{"balance": 50})
		require.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()

		_, err := New().WithExtensions([]int{1, 2, 3})
		require.ErrorIs(t, err, ErrUnsupportedValue)
	})

	t.Run("unserializable", func(t *testing.T) {
		t.Parallel()

		_, err := New().WithExtensions(make(chan int))
		require.ErrorIs(t, err, ErrUnsupportedValue)
	})
}

func TestProblem_TypeOrDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeBlank, New().TypeOrDefault())
	assert.Equal(t, "https://example.com/probs/x", New().WithType("https://example.com/probs/x").TypeOrDefault())
}

func TestProblem_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Problem
		want string
	}{
		{
			name: "title and detail",
			p:    New().WithTitle("Not Found").WithDetail("no such order"),
			want: "Not Found: no such order",
		},
		{
			name: "title only",
			p:    New().WithTitle("Not Found"),
			want: "Not Found",
		},
		{
			name: "detail only",
			p:    New().WithDetail("no such order"),
			want: "no such order",
		},
		{
			name: "status only",
			p:    New().WithStatus(http.StatusConflict),
			want: "Conflict",
		},
		{
			name: "empty",
			p:    New(),
			want: TypeBlank,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.p.Error())
		})
	}
}

func TestProblem_HTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, FromStatus(http.StatusNotFound).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, New().HTTPStatus(), "absent status maps to 500")
}
