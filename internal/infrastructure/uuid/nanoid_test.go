package uuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanoIDGenerator(t *testing.T) {
	_, err := NewNanoIDGenerator(0)
	assert.Error(t, err)

	g, err := NewNanoIDGenerator(21)
	require.NoError(t, err)
	a, err := g.Generate()
	require.NoError(t, err)
	b, err := g.Generate()
	require.NoError(t, err)

	assert.Len(t, a, 21)
	assert.NotEqual(t, a, b)
}
