package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/pkg/errors"
)

const (
	DirMode  = 0755
	FileMode = 0600

	PublicParamsFile = "lsabe.pp"
	MasterKeyFile    = "lsabe.msk"
)

// AuthorityFile names authority-<id>.<ext>, ext one of att, ask, apk.
func AuthorityFile(id int, ext string) string {
	return fmt.Sprintf("authority-%d.%s", id, ext)
}

// UserKeyFile names <GID>-authority-<id>.sk.
func UserKeyFile(gid string, id int) string {
	return fmt.Sprintf("%s-authority-%d.sk", gid, id)
}

// Keystore persists key artifacts in one directory.
type Keystore struct {
	dir   string
	lock  sync.Mutex
	locks map[int]*sync.RWMutex
}

func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, errors.Wrapf(err, "key directory %s", dir)
	}
	return &Keystore{dir: dir, locks: make(map[int]*sync.RWMutex)}, nil
}

func (k *Keystore) Dir() string {
	return k.dir
}

func (k *Keystore) authorityLock(id int) *sync.RWMutex {
	k.lock.Lock()
	defer k.lock.Unlock()
	l, ok := k.locks[id]
	if !ok {
		l = new(sync.RWMutex)
		k.locks[id] = l
	}
	return l
}

// write replaces name atomically
func (k *Keystore) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(k.dir, "."+name+".*")
	if err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	if err = tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", name)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), filepath.Join(k.dir, name)), "write %s", name)
}

func (k *Keystore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(k.dir, name))
	if err != nil {
		return nil, &LSABE.LoadError{Artifact: name, Err: err}
	}
	return data, nil
}

// Exists reports whether name is present in the key directory.
func (k *Keystore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(k.dir, name))
	return err == nil
}

func (k *Keystore) SaveGlobal(pp *LSABE.PublicParams, msk *LSABE.MasterKey) error {
	if msk != nil {
		if err := k.write(MasterKeyFile, LSABE.MarshalMasterKey(msk)); err != nil {
			return err
		}
	}
	return k.write(PublicParamsFile, LSABE.MarshalPublicParams(pp))
}

// SaveGlobalRaw stores already serialized global parameters after checking they parse.
func (k *Keystore) SaveGlobalRaw(pp, msk []byte) error {
	if _, err := LSABE.UnmarshalPublicParams(pp); err != nil {
		return LSABE.Relabel(err, PublicParamsFile)
	}
	if msk != nil {
		if _, err := LSABE.UnmarshalMasterKey(msk); err != nil {
			return LSABE.Relabel(err, MasterKeyFile)
		}
		if err := k.write(MasterKeyFile, msk); err != nil {
			return err
		}
	}
	return k.write(PublicParamsFile, pp)
}

func (k *Keystore) LoadPublicParams() (*LSABE.PublicParams, error) {
	data, err := k.read(PublicParamsFile)
	if err != nil {
		return nil, err
	}
	pp, err := LSABE.UnmarshalPublicParams(data)
	if err != nil {
		return nil, LSABE.Relabel(err, PublicParamsFile)
	}
	return pp, nil
}

func (k *Keystore) LoadGlobal() (*LSABE.PublicParams, *LSABE.MasterKey, error) {
	pp, err := k.LoadPublicParams()
	if err != nil {
		return nil, nil, err
	}
	data, err := k.read(MasterKeyFile)
	if err != nil {
		return nil, nil, err
	}
	msk, err := LSABE.UnmarshalMasterKey(data)
	if err != nil {
		return nil, nil, LSABE.Relabel(err, MasterKeyFile)
	}
	return pp, msk, nil
}

// SaveAuthority overwrites ATT, ASK and APK of a.ID. ASK is skipped when nil.
func (k *Keystore) SaveAuthority(a *LSABE.Authority) error {
	if err := a.Validate(); err != nil {
		return &LSABE.SetupError{Artifact: AuthorityFile(a.ID, "att"), Err: err}
	}
	var ask []byte
	if a.ASK != nil {
		ask = LSABE.MarshalASK(a)
	}
	return k.SaveAuthorityRaw(a.ID, LSABE.MarshalATT(a), ask, LSABE.MarshalAPK(a))
}

// SaveAuthorityRaw stores serialized authority material after checking it parses.
func (k *Keystore) SaveAuthorityRaw(id int, att, ask, apk []byte) error {
	a, err := LSABE.UnmarshalAuthority(att, ask, apk)
	if err != nil {
		return LSABE.Relabel(err, AuthorityFile(id, "att"))
	}
	if a.ID != id {
		return &LSABE.SetupError{Artifact: AuthorityFile(id, "att"), Err: errors.Errorf("material belongs to authority %d", a.ID)}
	}

	l := k.authorityLock(id)
	l.Lock()
	defer l.Unlock()
	if ask != nil {
		if err := k.write(AuthorityFile(id, "ask"), ask); err != nil {
			return err
		}
	} else {
		os.Remove(filepath.Join(k.dir, AuthorityFile(id, "ask")))
	}
	if err := k.write(AuthorityFile(id, "apk"), apk); err != nil {
		return err
	}
	return k.write(AuthorityFile(id, "att"), att)
}

// LoadAuthority reads the full triple.
func (k *Keystore) LoadAuthority(id int) (*LSABE.Authority, error) {
	return k.loadAuthority(id, true)
}

// LoadAuthorityPublic reads ATT and APK only, enough to encrypt.
func (k *Keystore) LoadAuthorityPublic(id int) (*LSABE.Authority, error) {
	return k.loadAuthority(id, false)
}

func (k *Keystore) loadAuthority(id int, secret bool) (*LSABE.Authority, error) {
	l := k.authorityLock(id)
	l.RLock()
	defer l.RUnlock()

	att, err := k.read(AuthorityFile(id, "att"))
	if err != nil {
		return nil, err
	}
	apk, err := k.read(AuthorityFile(id, "apk"))
	if err != nil {
		return nil, err
	}
	var ask []byte
	if secret {
		if ask, err = k.read(AuthorityFile(id, "ask")); err != nil {
			return nil, err
		}
	}
	a, err := LSABE.UnmarshalAuthority(att, ask, apk)
	if err != nil {
		var le *LSABE.LoadError
		if errors.As(err, &le) {
			switch le.Artifact {
			case "ATT", "ASK", "APK":
				return nil, LSABE.Relabel(err, AuthorityFile(id, strings.ToLower(le.Artifact)))
			}
		}
		return nil, LSABE.Relabel(err, AuthorityFile(id, "att"))
	}
	return a, nil
}

func checkGID(gid string) error {
	if gid == "" || gid == "." || gid == ".." || strings.ContainsAny(gid, "/\\") {
		return errors.Errorf("GID %q cannot name a key file", gid)
	}
	return nil
}

func (k *Keystore) SaveUserKey(sk *LSABE.UserSecretKey, authority int) error {
	if err := checkGID(sk.GID); err != nil {
		return err
	}
	return k.write(UserKeyFile(sk.GID, authority), LSABE.MarshalSecretKey(sk))
}

func (k *Keystore) LoadUserKey(gid string, authority int) (*LSABE.UserSecretKey, error) {
	if err := checkGID(gid); err != nil {
		return nil, err
	}
	name := UserKeyFile(gid, authority)
	data, err := k.read(name)
	if err != nil {
		return nil, err
	}
	sk, err := LSABE.UnmarshalSecretKey(data)
	if err != nil {
		return nil, LSABE.Relabel(err, name)
	}
	return sk, nil
}
