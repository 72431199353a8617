package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"gobasket/domain/core"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"empty dataset", core.ErrEmptyDataset, CodeEmptyDataset, http.StatusUnprocessableEntity},
		{"unknown dimension", core.NewUnknownDimensionError("region"), CodeUnknownDimension, http.StatusBadRequest},
		{"invalid top k", fmt.Errorf("ranking: %w", core.ErrInvalidTopK), CodeInvalidInput, http.StatusBadRequest},
		{"threshold", core.NewInvalidThresholdError("min_support", 2), CodeInvalidInput, http.StatusBadRequest},
		{"run not found", core.ErrRunNotFound, CodeNotFound, http.StatusNotFound},
		{"not ready", core.ErrSessionNotReady, CodeSessionNotReady, http.StatusServiceUnavailable},
		{"invalid run id", fmt.Errorf("%w: run ID \"x\" is not a valid UUID", core.ErrInvalidID), CodeInvalidInput, http.StatusBadRequest},
		{"deadline", fmt.Errorf("apriori: mining stopped before level 3: %w", context.DeadlineExceeded), CodeTimeout, http.StatusGatewayTimeout},
		{"anything else", stderrors.New("disk full"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromDomain(tt.err)
			code := GetCode(err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, HTTPStatus(code))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromDomain_PassThrough(t *testing.T) {
	assert.Nil(t, FromDomain(nil))

	appErr := ConfigInvalid("bad port")
	assert.Same(t, appErr, FromDomain(appErr))
}

func TestWrap(t *testing.T) {
	base := NotFound("mining run")
	wrapped := Wrapf(base, "loading run %s", "abc")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, "loading run abc: mining run not found", wrapped.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestCodedConstructors(t *testing.T) {
	cause := stderrors.New("connection refused")

	dbErr := DatabaseError("failed to load mining run", cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(GetCode(dbErr)))
	assert.Equal(t, "failed to load mining run: connection refused", dbErr.Error())
	assert.ErrorIs(t, dbErr, cause)

	extErr := ExternalServiceError("receipts", cause)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(GetCode(extErr)))
	assert.Equal(t, "receipts service error: connection refused", extErr.Error())

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(GetCode(ValidationError("bad body"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(GetCode(InternalError("panic"))))
	assert.Equal(t, "route /x not found", NotFound("route /x").Error())
}

func TestWithCode_KeepsMessage(t *testing.T) {
	err := WithCode(CodeEmptyDataset, core.ErrEmptyDataset)
	assert.Equal(t, core.ErrEmptyDataset.Error(), err.Error())
}
