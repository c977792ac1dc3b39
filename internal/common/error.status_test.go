package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWrap_KeepsSentinelIdentity(t *testing.T) {
	err := Wrap(ErrNoKpiDefinitions, map[string]string{"channel": "c1"}, nil)
	assert.True(t, errors.Is(err, ErrNoKpiDefinitions))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsRetryable(err))

	wrapped := fmt.Errorf("process survey: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNoKpiDefinitions))
	assert.True(t, IsConfigError(wrapped))
}

func TestConvertMongoError(t *testing.T) {
	assert.Nil(t, ConvertMongoError(nil))

	notFound := ConvertMongoError(mongo.ErrNoDocuments)
	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.True(t, errors.Is(notFound, mongo.ErrNoDocuments))
	assert.False(t, IsRetryable(notFound))

	dup := ConvertMongoError(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})
	assert.True(t, errors.Is(dup, ErrDuplicate))

	generic := ConvertMongoError(errors.New("boom"))
	assert.True(t, errors.Is(generic, ErrQuery))
	assert.True(t, IsRetryable(generic))
}

func TestIsRetryable_UnknownErrors(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("socket closed")))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrInvalidJob))
}
