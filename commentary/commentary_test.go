package commentary

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicForSeed(t *testing.T) {
	a := New(42)
	b := New(42)

	bufA := make([]byte, 256)
	bufB := make([]byte, 256)
	for i := 0; i < 64; i++ {
		na := a.Generate(bufA)
		nb := b.Generate(bufB)
		require.Equal(t, na, nb, "iteration %d", i)
		require.Equal(t, string(bufA[:na]), string(bufB[:nb]), "iteration %d", i)
	}
}

func TestGenerateProducesText(t *testing.T) {
	g := New(7)
	buf := make([]byte, 256)

	for i := 0; i < 128; i++ {
		n := g.Generate(buf)
		require.Positive(t, n)
		require.LessOrEqual(t, n, len(buf))
		assert.True(t, utf8.Valid(buf[:n]), "output must be valid UTF-8: %q", buf[:n])
	}
}

func TestGenerateRespectsCapacity(t *testing.T) {
	g := New(3)

	small := make([]byte, 10)
	for i := 0; i < 32; i++ {
		n := g.Generate(small)
		require.LessOrEqual(t, n, len(small))
	}

	assert.Zero(t, g.Generate(nil))
	assert.Zero(t, g.Generate([]byte{}))
}

func TestSeedFromEnvironment(t *testing.T) {
	t.Setenv(EnvSeed, "12345")
	assert.Equal(t, uint32(12345), InitSeed())

	t.Setenv(EnvSeed, "not-a-number")
	// Falls back to a random seed without failing.
	InitSeed()
}

func TestZeroSeedStillGenerates(t *testing.T) {
	g := New(0)
	buf := make([]byte, 128)
	require.Positive(t, g.Generate(buf))
}
