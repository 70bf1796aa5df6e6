package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("update task: %w", NotFound("tasks.update", "task", "t-1"))
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrWrite))
	require.Contains(t, err.Error(), `task "t-1" not found`)
}

func TestWriteClassifiesDeadline(t *testing.T) {
	err := Write("docstore.add", context.DeadlineExceeded)
	require.True(t, errors.Is(err, ErrTimeout))
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	err = Write("docstore.add", errors.New("disk full"))
	require.True(t, errors.Is(err, ErrWrite))

	// already classified errors keep their kind
	err = Write("docstore.update", NotFound("docstore.update", "document", "x"))
	require.True(t, errors.Is(err, ErrNotFound))
	require.Nil(t, Write("noop", nil))
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, HTTPStatus(AuthRequired("op")))
	require.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("op", "task", "1")))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(Write("op", errors.New("x"))))
	require.Equal(t, http.StatusGatewayTimeout, HTTPStatus(Write("op", context.DeadlineExceeded)))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(Invalid("op", "bad")))
	require.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("op", "no")))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
