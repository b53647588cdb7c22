package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorMatching(t *testing.T) {
	err := dbError("post", gorm.ErrRecordNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, CodeNotFound, GetErrorCode(err))

	wrapped := fmt.Errorf("handler: %w", dbError("post", errors.New("connection reset")))
	assert.Equal(t, CodeDatabase, GetErrorCode(wrapped))
	assert.Equal(t, CodeInternal, GetErrorCode(errors.New("plain")))
	assert.Equal(t, "query post: connection reset", errors.Unwrap(wrapped).Error())
}
