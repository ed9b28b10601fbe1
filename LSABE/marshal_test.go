package LSABE

import (
	"bytes"
	"testing"

	"github.com/AUKUS561/LSABEMA/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactRoundTrip(t *testing.T) {
	f := newFixture(t)
	sk := f.keygen(t, "alice", "eng", "mgr")
	ct := f.encrypt(t, "eng OR mgr", "hello world", "hello", "world")
	td, err := f.lsabe.TrapdoorGen(f.pp, sk, "alice", []string{"hello"})
	require.NoError(t, err)
	z, err := f.lsabe.NewBlinding()
	require.NoError(t, err)
	tk, err := f.lsabe.TransKeyGen(sk, z, "alice")
	require.NoError(t, err)
	out, err := f.lsabe.Transform(ct, tk)
	require.NoError(t, err)

	// 1. global
	pp, err := UnmarshalPublicParams(MarshalPublicParams(f.pp))
	require.NoError(t, err)
	assert.Equal(t, MarshalPublicParams(f.pp), MarshalPublicParams(pp))
	msk, err := UnmarshalMasterKey(MarshalMasterKey(f.msk))
	require.NoError(t, err)
	assert.Equal(t, 0, msk.Lambda.Cmp(f.msk.Lambda))

	// 2. authority, full and public half
	auth, err := UnmarshalAuthority(MarshalATT(f.auth), MarshalASK(f.auth), MarshalAPK(f.auth))
	require.NoError(t, err)
	assert.Equal(t, f.auth.ID, auth.ID)
	assert.Equal(t, f.auth.Version, auth.Version)
	assert.Equal(t, f.auth.ATT, auth.ATT)
	assert.Equal(t, MarshalASK(f.auth), MarshalASK(auth))
	assert.Equal(t, MarshalAPK(f.auth), MarshalAPK(auth))
	public, err := UnmarshalAuthority(MarshalATT(f.auth), nil, MarshalAPK(f.auth))
	require.NoError(t, err)
	assert.Nil(t, public.ASK)

	// 3. user material
	sk2, err := UnmarshalSecretKey(MarshalSecretKey(sk))
	require.NoError(t, err)
	assert.Equal(t, MarshalSecretKey(sk), MarshalSecretKey(sk2))
	td2, err := UnmarshalTrapdoor(MarshalTrapdoor(td))
	require.NoError(t, err)
	assert.Equal(t, MarshalTrapdoor(td), MarshalTrapdoor(td2))
	tk2, err := UnmarshalTransformKey(MarshalTransformKey(tk))
	require.NoError(t, err)
	assert.Equal(t, MarshalTransformKey(tk), MarshalTransformKey(tk2))

	// 4. ciphertexts
	ct2, err := UnmarshalCiphertext(MarshalCiphertext(ct))
	require.NoError(t, err)
	assert.Equal(t, MarshalCiphertext(ct), MarshalCiphertext(ct2))
	out2, err := UnmarshalPartialCiphertext(MarshalPartialCiphertext(out))
	require.NoError(t, err)
	assert.Equal(t, MarshalPartialCiphertext(out), MarshalPartialCiphertext(out2))

	// 5. reloaded values still work together
	ok, err := f.lsabe.Search(ct2, td2)
	require.NoError(t, err)
	require.True(t, ok)
	out3, err := f.lsabe.Transform(ct2, tk2)
	require.NoError(t, err)
	msg, err := f.lsabe.Decrypt(z, out3)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(msg))
}

func TestLoadErrors(t *testing.T) {
	f := newFixture(t)
	data := MarshalPublicParams(f.pp)

	// truncated
	_, err := UnmarshalPublicParams(data[:len(data)/2])
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "public params", le.Artifact)

	// other curve
	_, err = UnmarshalPublicParams(bytes.Replace(data, []byte(codec.Curve), []byte("ss512"), 1))
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, codec.ErrCurve)

	// trailing tokens
	_, err = UnmarshalMasterKey(append(MarshalMasterKey(f.msk), []byte(" MTIz")...))
	assert.ErrorAs(t, err, &le)

	// ASK and ATT disagree
	short, err := f.lsabe.AuthoritySetup(f.pp, 1, []string{"eng"})
	require.NoError(t, err)
	_, err = UnmarshalAuthority(MarshalATT(f.auth), MarshalASK(short), MarshalAPK(f.auth))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "authority", le.Artifact)

	// Relabel keeps the cause, names the file
	err = Relabel(err, "authority-1.ask")
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "authority-1.ask", le.Artifact)
	assert.Contains(t, err.Error(), "authority-1.ask")

	_, err = UnmarshalCiphertext([]byte("bn256 0001"))
	assert.ErrorAs(t, err, &le)
}
