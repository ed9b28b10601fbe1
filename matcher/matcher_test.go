package matcher

import (
	"context"
	"testing"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	// 1. one authority, alice holds eng
	lsabe := LSABE.NewLSABE(LSABE.DefaultMaxKeywords)
	pp, msk, err := lsabe.GlobalSetup()
	require.NoError(t, err)
	auth, err := lsabe.AuthoritySetup(pp, 1, []string{"eng", "mgr"})
	require.NoError(t, err)
	sk, err := lsabe.SecretKeyGen(pp, msk, auth, "alice", []string{"eng"})
	require.NoError(t, err)

	encrypt := func(policy, msg string, kws ...string) []byte {
		p, err := lsabe.Policy(policy)
		require.NoError(t, err)
		ct, err := lsabe.EncryptAndIndexGen(pp, []*LSABE.Authority{auth}, p, []byte(msg), kws)
		require.NoError(t, err)
		return LSABE.MarshalCiphertext(ct)
	}

	// 2. two hits, one keyword miss, one policy miss, two broken items
	items := map[string][]byte{
		"a": encrypt("eng OR mgr", "hello world", "hello", "world"),
		"b": encrypt("eng", "hello again", "hello"),
		"c": encrypt("eng", "goodbye", "goodbye"),
		"d": encrypt("mgr", "hello manager", "hello"),
		"e": []byte("bn256 0001"),
		"f": []byte("not an artifact"),
	}

	td, err := lsabe.TrapdoorGen(pp, sk, "alice", []string{"hello"})
	require.NoError(t, err)
	z, err := lsabe.NewBlinding()
	require.NoError(t, err)
	tk, err := lsabe.TransKeyGen(sk, z, "alice")
	require.NoError(t, err)

	report, err := New(lsabe, 3, nil).Scan(context.Background(), items, td, tk)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 2, report.Failed)

	// 3. every result decrypts
	got := make(map[string]bool)
	for _, out := range report.Results {
		msg, err := lsabe.Decrypt(z, out)
		require.NoError(t, err)
		got[string(msg)] = true
	}
	assert.Equal(t, map[string]bool{"hello world": true, "hello again": true}, got)
}

func TestScanEmpty(t *testing.T) {
	report, err := New(LSABE.NewLSABE(0), 0, nil).Scan(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Empty(t, report.Results)
}
