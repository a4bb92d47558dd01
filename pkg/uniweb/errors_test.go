package uniweb_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
	"github.com/stretchr/testify/assert"
)

func TestRemoteError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("reading resources: %w", &uniweb.RemoteError{Message: "Unknown section"})

	assert.True(t, uniweb.IsRemoteError(err))
	assert.False(t, uniweb.IsAuthError(err))
	assert.Equal(t, "reading resources: remote error: Unknown section", err.Error())

	message, ok := uniweb.RemoteMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Unknown section", message)

	_, ok = uniweb.RemoteMessage(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err   error
		class error
	}{
		{uniweb.ErrEmptyHomepage, uniweb.ErrConfig},
		{uniweb.ErrCredentialsMissing, uniweb.ErrConfig},
		{uniweb.ErrMissingID, uniweb.ErrInvalidRequest},
		{uniweb.ErrDottedAttachment, uniweb.ErrInvalidRequest},
		{uniweb.ErrUnreadableFile, uniweb.ErrInvalidRequest},
		{uniweb.ErrResourceShape, uniweb.ErrInvalidRequest},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, testCase.err, testCase.class)
		})
	}

	assert.True(t, uniweb.IsRetryExhausted(fmt.Errorf("wrapped: %w", uniweb.ErrRetryExhausted)))
	assert.True(t, uniweb.IsInvalidRequest(uniweb.ErrEmptyRequest))
}
