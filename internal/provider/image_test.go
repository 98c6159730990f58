package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewImageProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewImageProvider(ImageConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestNewImageProvider_AppliesTimeout(t *testing.T) {
	p, err := NewImageProvider(ImageConfig{
		APIKey:  "test-key",
		Model:   "gpt-image-1",
		Timeout: 30 * time.Second,
	}, zap.NewNop())

	require.NoError(t, err)
	assert.NotNil(t, p)
}
