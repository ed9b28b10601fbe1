package codec

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLayout(t *testing.T) {
	w := NewWriter()
	w.Size(3)
	w.String("eng")
	out := string(w.Encode())
	assert.Equal(t, "bn256 0003 ZW5n\n", out)
}

func TestReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Size(2)
	w.Scalar(big.NewInt(-17))
	w.Int(42)
	w.Int64(1 << 40)
	w.String("alice")
	w.Bytes([]byte{0, 1, 2})
	w.Element([]byte("point"))

	r, err := NewReader(w.Encode())
	require.NoError(t, err)
	n, err := r.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	x, err := r.Scalar()
	require.NoError(t, err)
	assert.Equal(t, int64(-17), x.Int64())
	i, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, 42, i)
	i64, err := r.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64)
	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "alice", s)
	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, b)
	e, err := r.Element()
	require.NoError(t, err)
	assert.Equal(t, "point", string(e))
	require.NoError(t, r.Done())

	_, err = r.String()
	assert.Error(t, err, "reading past the end must fail")
}

func TestReaderRejects(t *testing.T) {
	_, err := NewReader(nil)
	assert.Error(t, err)

	_, err = NewReader([]byte("ss512 0001 ZW5n"))
	assert.ErrorIs(t, err, ErrCurve)

	r, err := NewReader([]byte("bn256 0009 ZW5n"))
	require.NoError(t, err)
	_, err = r.Size()
	assert.Error(t, err, "size larger than the remaining tokens")

	r, err = NewReader([]byte("bn256 12 ZW5n"))
	require.NoError(t, err)
	_, err = r.Size()
	assert.Error(t, err)

	r, err = NewReader([]byte("bn256 !!notbase64"))
	require.NoError(t, err)
	_, err = r.Bytes()
	assert.Error(t, err)

	r, err = NewReader([]byte(strings.Join([]string{Curve, "ZW5n", "ZW5n"}, " ")))
	require.NoError(t, err)
	_, err = r.String()
	require.NoError(t, err)
	assert.Error(t, r.Done())
}

func TestEmptyValues(t *testing.T) {
	w := NewWriter()
	w.String("")
	w.Bytes(nil)
	w.String("x")

	r, err := NewReader(w.Encode())
	require.NoError(t, err)
	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "", s)
	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Empty(t, b)
	s, err = r.String()
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	assert.NoError(t, r.Done())
}

func TestSizeAboveFourDigits(t *testing.T) {
	const n = 10000
	w := NewWriter()
	w.Size(n)
	for k := 0; k < n; k++ {
		w.Int(k)
	}

	r, err := NewReader(w.Encode())
	require.NoError(t, err)
	got, err := r.Size()
	require.NoError(t, err)
	require.Equal(t, n, got)
	for k := 0; k < n; k++ {
		v, err := r.Int()
		require.NoError(t, err)
		require.Equal(t, k, v)
	}
	assert.NoError(t, r.Done())

	r, err = NewReader([]byte("bn256 -001 ZW5n"))
	require.NoError(t, err)
	_, err = r.Size()
	assert.Error(t, err, "sign is not a digit")
}
