package apiclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantData    string
		wantMessage string
		wantKind    ErrorKind
	}{
		{
			name:        "nested envelope",
			status:      http.StatusOK,
			body:        `{"success":true,"data":{"id":"p1"},"message":"ok"}`,
			wantSuccess: true,
			wantData:    `{"id":"p1"}`,
			wantMessage: "ok",
		},
		{
			name:        "flat envelope",
			status:      http.StatusOK,
			body:        `{"success":true,"token":"t","user":{"id":"u1"}}`,
			wantSuccess: true,
			wantData:    `{"token":"t","user":{"id":"u1"}}`,
		},
		{
			name:        "success flag absent on 2xx",
			status:      http.StatusCreated,
			body:        `{"id":"a1"}`,
			wantSuccess: true,
			wantData:    `{"id":"a1"}`,
		},
		{
			name:        "bare array",
			status:      http.StatusOK,
			body:        `[1,2]`,
			wantSuccess: true,
			wantData:    `[1,2]`,
		},
		{
			name:        "application failure",
			status:      http.StatusOK,
			body:        `{"success":false,"message":"out of stock"}`,
			wantMessage: "out of stock",
			wantKind:    KindApplication,
		},
		{
			name:        "http error with message",
			status:      http.StatusNotFound,
			body:        `{"success":false,"message":"product not found"}`,
			wantMessage: "product not found",
			wantKind:    KindHTTP,
		},
		{
			name:        "http error with error field",
			status:      http.StatusBadRequest,
			body:        `{"error":"invalid body"}`,
			wantMessage: "invalid body",
			wantKind:    KindHTTP,
		},
		{
			name:        "http error plain text",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantMessage: "upstream down",
			wantKind:    KindHTTP,
		},
		{
			name:        "http error empty body",
			status:      http.StatusServiceUnavailable,
			wantMessage: "",
			wantKind:    KindHTTP,
		},
		{
			name:        "success true cannot override 5xx",
			status:      http.StatusInternalServerError,
			body:        `{"success":true}`,
			wantKind:    KindHTTP,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := normalize(tc.status, []byte(tc.body))

			assert.Equal(t, tc.wantSuccess, res.Success)
			assert.Equal(t, tc.status, res.Status)
			if tc.wantData != "" {
				assert.JSONEq(t, tc.wantData, string(res.Data))
			}
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, res.Message)
			}
			if tc.wantSuccess {
				assert.Nil(t, res.Err)
				return
			}
			require.NotNil(t, res.Err)
			assert.Equal(t, tc.wantKind, res.Err.Kind)
			assert.Equal(t, tc.status, res.Err.Status)
			assert.NotEmpty(t, res.Err.Message)
		})
	}
}

func TestResult_Decode(t *testing.T) {
	ok := normalize(http.StatusOK, []byte(`{"success":true,"data":{"id":"x"}}`))
	var payload struct{ ID string }
	require.NoError(t, ok.Decode(&payload))
	assert.Equal(t, "x", payload.ID)

	empty := normalize(http.StatusNoContent, nil)
	assert.NoError(t, empty.Decode(&payload))

	failed := normalize(http.StatusUnauthorized, []byte(`{"message":"expired"}`))
	err := failed.Decode(&payload)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestError_Helpers(t *testing.T) {
	netErr := networkResult(http.ErrHandlerTimeout).AsError()
	assert.True(t, IsNetwork(netErr))
	assert.ErrorIs(t, netErr, http.ErrHandlerTimeout)
	assert.Equal(t, 0, StatusOf(netErr))

	assert.False(t, IsUnauthorized(nil))
	assert.NoError(t, Result{Success: true}.AsError())
	assert.Error(t, Result{}.AsError())
}
