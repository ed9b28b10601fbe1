// Package codec implements the whitespace separated token format used for
// every persisted artifact. Tuples carry a zero-padded size prefix of at least 4 digits,
// everything else is a base64 token.
package codec

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Curve tags every artifact; a reader built for another curve rejects it.
const Curve = "bn256"

// ErrCurve reports an artifact written for another pairing group.
var ErrCurve = errors.New("curve mismatch")

var enc = base64.StdEncoding

// empty stands in for a zero-length value so the token count stays fixed
const empty = "-"

func encode(b []byte) string {
	if len(b) == 0 {
		return empty
	}
	return enc.EncodeToString(b)
}

type Writer struct {
	tokens []string
}

// NewWriter starts an artifact with the curve tag.
func NewWriter() *Writer {
	return &Writer{tokens: []string{Curve}}
}

func (w *Writer) Size(n int) {
	w.tokens = append(w.tokens, fmt.Sprintf("%04d", n))
}

// Element writes a marshalled group element.
func (w *Writer) Element(b []byte) {
	w.tokens = append(w.tokens, encode(b))
}

func (w *Writer) Scalar(x *big.Int) {
	w.tokens = append(w.tokens, enc.EncodeToString([]byte(x.String())))
}

func (w *Writer) Int(n int) {
	w.tokens = append(w.tokens, enc.EncodeToString([]byte(strconv.Itoa(n))))
}

func (w *Writer) Int64(n int64) {
	w.tokens = append(w.tokens, enc.EncodeToString([]byte(strconv.FormatInt(n, 10))))
}

func (w *Writer) String(s string) {
	w.tokens = append(w.tokens, encode([]byte(s)))
}

func (w *Writer) Bytes(b []byte) {
	w.tokens = append(w.tokens, encode(b))
}

// Encode returns the artifact, one line, newline terminated.
func (w *Writer) Encode() []byte {
	return []byte(strings.Join(w.tokens, " ") + "\n")
}

type Reader struct {
	tokens []string
	pos    int
}

// NewReader splits data into tokens and checks the curve tag.
func NewReader(data []byte) (*Reader, error) {
	tokens := strings.Fields(string(data))
	if len(tokens) == 0 {
		return nil, errors.New("empty artifact")
	}
	if tokens[0] != Curve {
		return nil, errors.Wrapf(ErrCurve, "got %q, want %q", tokens[0], Curve)
	}
	return &Reader{tokens: tokens, pos: 1}, nil
}

func (r *Reader) next() (string, error) {
	if r.pos >= len(r.tokens) {
		return "", errors.Errorf("truncated: token %d missing", r.pos)
	}
	t := r.tokens[r.pos]
	r.pos++
	return t, nil
}

func (r *Reader) raw() ([]byte, error) {
	t, err := r.next()
	if err != nil {
		return nil, err
	}
	if t == empty {
		return []byte{}, nil
	}
	b, err := enc.DecodeString(t)
	if err != nil {
		return nil, errors.Wrapf(err, "token %d", r.pos-1)
	}
	return b, nil
}

func (r *Reader) Size() (int, error) {
	t, err := r.next()
	if err != nil {
		return 0, err
	}
	// %04d pads to four digits and widens past 9999
	if len(t) < 4 || strings.Trim(t, "0123456789") != "" {
		return 0, errors.Errorf("token %d: bad size prefix %q", r.pos-1, t)
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, errors.Errorf("token %d: bad size prefix %q", r.pos-1, t)
	}
	// every entry needs at least one token
	if n > len(r.tokens)-r.pos {
		return 0, errors.Errorf("token %d: size %d exceeds remaining tokens", r.pos-1, n)
	}
	return n, nil
}

func (r *Reader) Element() ([]byte, error) {
	return r.raw()
}

func (r *Reader) Scalar() (*big.Int, error) {
	b, err := r.raw()
	if err != nil {
		return nil, err
	}
	x, ok := new(big.Int).SetString(string(b), 10)
	if !ok {
		return nil, errors.Errorf("token %d: not a scalar", r.pos-1)
	}
	return x, nil
}

func (r *Reader) Int() (int, error) {
	b, err := r.raw()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, errors.Wrapf(err, "token %d", r.pos-1)
	}
	return n, nil
}

func (r *Reader) Int64() (int64, error) {
	b, err := r.raw()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "token %d", r.pos-1)
	}
	return n, nil
}

func (r *Reader) String() (string, error) {
	b, err := r.raw()
	return string(b), err
}

func (r *Reader) Bytes() ([]byte, error) {
	return r.raw()
}

// Done fails if tokens are left over.
func (r *Reader) Done() error {
	if r.pos != len(r.tokens) {
		return errors.Errorf("%d trailing tokens", len(r.tokens)-r.pos)
	}
	return nil
}
