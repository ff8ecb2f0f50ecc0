package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlayBuffersUntilCommit(t *testing.T) {
	base := NewMemoryProvider()
	require.NoError(t, base.Put([]byte("a"), []byte("1")))
	require.NoError(t, base.Put([]byte("b"), []byte("2")))

	o := NewOverlay(base)
	require.NoError(t, o.Put([]byte("c"), []byte("3")))
	require.NoError(t, o.Delete([]byte("a")))
	require.NoError(t, o.Put([]byte("b"), []byte("20")))

	value, err := o.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, value)
	value, err = o.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("20"), value)

	// base untouched
	value, err = base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
	assert.Equal(t, 2, base.Len())

	assert.Equal(t, map[string]string{"b": "20", "c": "3"}, collect(t, o, nil))
	assert.Equal(t, 3, o.Pending())

	require.NoError(t, o.Commit())
	assert.Zero(t, o.Pending())
	assert.Equal(t, map[string]string{"b": "20", "c": "3"}, collect(t, base, nil))
}

func TestOverlayDiscard(t *testing.T) {
	base := NewMemoryProvider()
	require.NoError(t, base.Put([]byte("a"), []byte("1")))

	o := NewOverlay(base)
	require.NoError(t, o.Delete([]byte("a")))
	require.NoError(t, o.Put([]byte("z"), []byte("9")))
	o.Discard()

	assert.Equal(t, map[string]string{"a": "1"}, collect(t, o, nil))
	require.NoError(t, o.Commit())
	assert.Equal(t, map[string]string{"a": "1"}, collect(t, base, nil))
}

func TestOverlayPutAfterDelete(t *testing.T) {
	base := NewMemoryProvider()
	require.NoError(t, base.Put([]byte("a"), []byte("1")))

	o := NewOverlay(base)
	require.NoError(t, o.Delete([]byte("a")))
	require.NoError(t, o.Put([]byte("a"), []byte("2")))
	has, err := o.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, has)

	batch := o.Batch()
	batch.Delete([]byte("a"))
	batch.Put([]byte("b"), []byte("3"))
	require.NoError(t, batch.Write())

	assert.Equal(t, map[string]string{"b": "3"}, collect(t, o, nil))
	value, err := base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value, "overlay batches do not reach the base")
}
