package errno

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	errGone := New(http.StatusGone, "gone", "gone")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"sentinel", errGone, http.StatusGone, "gone"},
		{"wrapped", fmt.Errorf("lookup car: %w", errGone), http.StatusGone, "gone"},
		{"joined", errors.Join(errors.New("plain"), errGone), http.StatusGone, "gone"},
		{"uncoded", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Decode(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWrappedSentinelMatchesIs(t *testing.T) {
	errGone := New(http.StatusGone, "gone", "gone")
	assert.ErrorIs(t, fmt.Errorf("ctx: %w", errGone), errGone)
	assert.NotErrorIs(t, New(http.StatusGone, "gone", "gone"), errGone)
}
