package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/client"
	"github.com/AUKUS561/LSABEMA/matcher"
	"github.com/AUKUS561/LSABEMA/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	lsabe  *LSABE.LSABE
	pp     *LSABE.PublicParams
	msk    *LSABE.MasterKey
	auth   *LSABE.Authority
	keys   *storage.Keystore
	client *client.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	keys, err := storage.NewKeystore(filepath.Join(dir, "keys"))
	require.NoError(t, err)
	store, err := storage.NewCipherStore(filepath.Join(dir, "data"), 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lsabe := LSABE.NewLSABE(LSABE.DefaultMaxKeywords)
	h := NewHandler(keys, store, matcher.New(lsabe, 2, nil), nil)
	srv := httptest.NewServer(NewEngine(h))
	t.Cleanup(srv.Close)

	pp, msk, err := lsabe.GlobalSetup()
	require.NoError(t, err)
	auth, err := lsabe.AuthoritySetup(pp, 1, []string{"eng", "mgr"})
	require.NoError(t, err)
	return &env{lsabe: lsabe, pp: pp, msk: msk, auth: auth, keys: keys, client: client.New(srv.URL)}
}

func (e *env) store(t *testing.T, policy, msg string, kws ...string) {
	t.Helper()
	p, err := e.lsabe.Policy(policy)
	require.NoError(t, err)
	ct, err := e.lsabe.EncryptAndIndexGen(e.pp, []*LSABE.Authority{e.auth}, p, []byte(msg), kws)
	require.NoError(t, err)
	id, err := e.client.Store(context.Background(), LSABE.MarshalCiphertext(ct))
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestServiceEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// 1. heartbeat and setup uploads
	require.NoError(t, e.client.Heartbeat(ctx))
	require.NoError(t, e.client.GlobalSetup(ctx, LSABE.MarshalPublicParams(e.pp), nil))
	require.NoError(t, e.client.AuthoritySetup(ctx, 1, LSABE.MarshalATT(e.auth), nil, LSABE.MarshalAPK(e.auth)))
	_, err := e.keys.LoadPublicParams()
	require.NoError(t, err)
	_, err = e.keys.LoadAuthorityPublic(1)
	require.NoError(t, err)

	// 2. owner stores two ciphertexts
	e.store(t, "eng OR mgr", "hello world", "hello", "world")
	e.store(t, "eng", "goodbye world", "goodbye")

	// 3. alice searches for hello
	sk, err := e.lsabe.SecretKeyGen(e.pp, e.msk, e.auth, "alice", []string{"eng"})
	require.NoError(t, err)
	td, err := e.lsabe.TrapdoorGen(e.pp, sk, "alice", []string{"hello"})
	require.NoError(t, err)
	z, err := e.lsabe.NewBlinding()
	require.NoError(t, err)
	tk, err := e.lsabe.TransKeyGen(sk, z, "alice")
	require.NoError(t, err)

	res, err := e.client.Search(ctx, LSABE.MarshalTrapdoor(td), LSABE.MarshalTransformKey(tk))
	require.NoError(t, err)
	require.Len(t, res.CTout, 1)
	assert.Equal(t, 2, res.Scanned)
	assert.Zero(t, res.Failed)

	out, err := LSABE.UnmarshalPartialCiphertext([]byte(res.CTout[0]))
	require.NoError(t, err)
	msg, err := e.lsabe.Decrypt(z, out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(msg))

	// 4. no match is a 404
	td, err = e.lsabe.TrapdoorGen(e.pp, sk, "alice", []string{"nothing"})
	require.NoError(t, err)
	_, err = e.client.Search(ctx, LSABE.MarshalTrapdoor(td), LSABE.MarshalTransformKey(tk))
	assert.ErrorIs(t, err, client.ErrNotFound)

	// 5. clear
	n, err := e.client.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestServiceRejectsMalformed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.client.Store(ctx, []byte("bn256 0001"))
	assert.Error(t, err)
	assert.Error(t, e.client.GlobalSetup(ctx, []byte("ss512 abc"), nil))
	assert.Error(t, e.client.AuthoritySetup(ctx, 2, LSABE.MarshalATT(e.auth), nil, LSABE.MarshalAPK(e.auth)),
		"authority 1 material uploaded as authority 2")
	_, err = e.client.Search(ctx, []byte("bn256"), []byte("bn256"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrNotFound)
}

func TestSearchMissingFiles(t *testing.T) {
	dir := t.TempDir()
	keys, err := storage.NewKeystore(filepath.Join(dir, "keys"))
	require.NoError(t, err)
	store, err := storage.NewCipherStore(filepath.Join(dir, "data"), 0, 0)
	require.NoError(t, err)
	defer store.Close()
	engine := NewEngine(NewHandler(keys, store, matcher.New(LSABE.NewLSABE(0), 1, nil), nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alive", w.Body.String())
}
