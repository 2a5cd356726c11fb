package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("passphrase")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, len("passphrase")), buf)

	WipeByteArray(nil)
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("insert record: %w: %w", ErrStore, errors.New("disk I/O error"))
	assert.ErrorIs(t, err, ErrStore)
	assert.NotErrorIs(t, err, ErrDuplicateRecord)

	err = fmt.Errorf("recover record: %w", fmt.Errorf("update record: %w", ErrDuplicateRecord))
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}
