package aierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"status 429 in text", errors.New("googleapi: Error 429: too many requests"), KindQuotaExceeded},
		{"resource exhausted", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), KindQuotaExceeded},
		{"quota", errors.New("you exceeded your current quota"), KindQuotaExceeded},
		{"limit", errors.New("rate limit hit"), KindQuotaExceeded},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, KindQuotaExceeded},
		{"googleapi 401", &googleapi.Error{Code: http.StatusUnauthorized}, KindConfiguration},
		{"googleapi 500", &googleapi.Error{Code: http.StatusInternalServerError, Message: "internal"}, KindBackend},
		{"invalid api key", &googleapi.Error{Code: http.StatusBadRequest, Message: "API key not valid. Please pass a valid API key."}, KindConfiguration},
		{"api key reason in text", errors.New("rpc error: API_KEY_INVALID"), KindConfiguration},
		{"quota wins over api key", errors.New("quota exceeded for API key"), KindQuotaExceeded},
		{"deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), KindNetwork},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindNetwork},
		{"already classified", New(KindParse, "op", errors.New("bad json")), KindParse},
		{"wrapped classified", fmt.Errorf("outer: %w", New(KindConfiguration, "op", nil)), KindConfiguration},
		{"anything else", errors.New("boom"), KindBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	err := errors.New("upstream said 429")
	first := Classify(err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(err))
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))

	wrapped := Wrap("requestWorkout", errors.New("quota exceeded"))
	assert.Equal(t, KindQuotaExceeded, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "requestWorkout")

	original := New(KindParse, "inner", errors.New("x"))
	assert.Same(t, original, Wrap("outer", original))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(errors.New("plain")))
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestKind_Properties(t *testing.T) {
	assert.False(t, KindConfiguration.Retryable())
	assert.False(t, KindParse.Retryable())
	assert.True(t, KindQuotaExceeded.Retryable())
	assert.True(t, KindNetwork.Retryable())

	assert.Equal(t, http.StatusServiceUnavailable, KindConfiguration.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, KindQuotaExceeded.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, KindParse.HTTPStatus())

	for _, k := range []Kind{KindConfiguration, KindQuotaExceeded, KindParse, KindNetwork, KindBackend} {
		assert.NotEmpty(t, k.Message(), string(k))
	}
}
