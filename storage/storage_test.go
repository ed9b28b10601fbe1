package storage

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherStore(t *testing.T) {
	store, err := NewCipherStore(filepath.Join(t.TempDir(), "data"), 0, 0)
	require.NoError(t, err)
	defer store.Close()

	ids := make([]string, 0, 3)
	for _, ct := range []string{"first", "second", "third"} {
		id, err := store.Put([]byte(ct))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	got, err := store.Get(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, NotFound)

	listed, err := store.List()
	require.NoError(t, err)
	sort.Strings(listed)
	sort.Strings(ids)
	assert.Equal(t, ids, listed)

	items, err := store.Items()
	require.NoError(t, err)
	assert.Len(t, items, 3)

	n, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = store.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCipherStoreReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewCipherStore(dir, 0, 0)
	require.NoError(t, err)
	id, err := store.Put([]byte("kept"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewCipherStore(dir, 0, 0)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}

func setupKeys(t *testing.T) (*Keystore, *LSABE.LSABE, *LSABE.PublicParams, *LSABE.MasterKey) {
	t.Helper()
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keys"))
	require.NoError(t, err)
	lsabe := LSABE.NewLSABE(LSABE.DefaultMaxKeywords)
	pp, msk, err := lsabe.GlobalSetup()
	require.NoError(t, err)
	require.NoError(t, ks.SaveGlobal(pp, msk))
	return ks, lsabe, pp, msk
}

func TestKeystoreGlobal(t *testing.T) {
	ks, _, pp, msk := setupKeys(t)
	assert.True(t, ks.Exists(PublicParamsFile))

	pp2, msk2, err := ks.LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, LSABE.MarshalPublicParams(pp), LSABE.MarshalPublicParams(pp2))
	assert.Equal(t, 0, msk.Lambda.Cmp(msk2.Lambda))

	// the error names the broken file
	require.NoError(t, os.WriteFile(filepath.Join(ks.Dir(), MasterKeyFile), []byte("bn256"), FileMode))
	_, _, err = ks.LoadGlobal()
	var le *LSABE.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, MasterKeyFile, le.Artifact)

	empty, err := NewKeystore(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	_, err = empty.LoadPublicParams()
	require.ErrorAs(t, err, &le)
	assert.Equal(t, PublicParamsFile, le.Artifact)

	assert.Error(t, ks.SaveGlobalRaw([]byte("bn256 garbage"), nil))
}

func TestKeystoreAuthorityAndUser(t *testing.T) {
	ks, lsabe, pp, msk := setupKeys(t)
	auth, err := lsabe.AuthoritySetup(pp, 7, []string{"eng", "mgr"})
	require.NoError(t, err)
	require.NoError(t, ks.SaveAuthority(auth))

	full, err := ks.LoadAuthority(7)
	require.NoError(t, err)
	assert.Equal(t, auth.ATT, full.ATT)
	assert.Equal(t, LSABE.MarshalASK(auth), LSABE.MarshalASK(full))
	public, err := ks.LoadAuthorityPublic(7)
	require.NoError(t, err)
	assert.Nil(t, public.ASK)

	// a raw upload for another id is refused
	err = ks.SaveAuthorityRaw(8, LSABE.MarshalATT(auth), LSABE.MarshalASK(auth), LSABE.MarshalAPK(auth))
	var se *LSABE.SetupError
	assert.ErrorAs(t, err, &se)

	sk, err := lsabe.SecretKeyGen(pp, msk, full, "alice", []string{"eng"})
	require.NoError(t, err)
	require.NoError(t, ks.SaveUserKey(sk, 7))
	assert.True(t, ks.Exists(UserKeyFile("alice", 7)))
	sk2, err := ks.LoadUserKey("alice", 7)
	require.NoError(t, err)
	assert.Equal(t, LSABE.MarshalSecretKey(sk), LSABE.MarshalSecretKey(sk2))

	_, err = ks.LoadUserKey("../alice", 7)
	assert.Error(t, err)

	// truncated APK is reported by file name
	require.NoError(t, os.WriteFile(filepath.Join(ks.Dir(), AuthorityFile(7, "apk")), []byte("bn256 0002"), FileMode))
	_, err = ks.LoadAuthority(7)
	var le *LSABE.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, AuthorityFile(7, "apk"), le.Artifact)
}

func TestKeystoreConcurrentAuthoritySetup(t *testing.T) {
	ks, lsabe, pp, _ := setupKeys(t)
	auth, err := lsabe.AuthoritySetup(pp, 1, []string{"eng"})
	require.NoError(t, err)
	require.NoError(t, ks.SaveAuthority(auth))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a, err := lsabe.AuthoritySetup(pp, 1, []string{"eng"})
			if assert.NoError(t, err) {
				assert.NoError(t, ks.SaveAuthority(a))
			}
		}()
		go func() {
			defer wg.Done()
			a, err := ks.LoadAuthority(1)
			if assert.NoError(t, err) {
				assert.NoError(t, a.Validate())
			}
		}()
	}
	wg.Wait()
}
