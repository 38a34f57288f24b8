package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore("http://files.local/")
	ctx := context.Background()

	key, err := s.Upload(ctx, "visiting-cards", "Card.PNG", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "visiting-cards/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	data, ok := s.Object(key)
	require.True(t, ok)
	assert.Equal(t, []byte("png"), data)

	link, err := s.PresignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://files.local/visiting-cards/"))
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore("")
	_, err := s.PresignedURL(context.Background(), "nope", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestObjectKeysAreUnique(t *testing.T) {
	a := objectKey("p", "x.pdf")
	b := objectKey("p", "x.pdf")
	assert.NotEqual(t, a, b)
}
