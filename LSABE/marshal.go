package LSABE

import (
	"math/big"

	"github.com/AUKUS561/LSABEMA/codec"
	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

func readG1(r *codec.Reader) (*bn256.G1, error) {
	b, err := r.Element()
	if err != nil {
		return nil, err
	}
	e := new(bn256.G1)
	if _, err := e.Unmarshal(b); err != nil {
		return nil, errors.Wrap(err, "G1 element")
	}
	return e, nil
}

func readG2(r *codec.Reader) (*bn256.G2, error) {
	b, err := r.Element()
	if err != nil {
		return nil, err
	}
	e := new(bn256.G2)
	if _, err := e.Unmarshal(b); err != nil {
		return nil, errors.Wrap(err, "G2 element")
	}
	return e, nil
}

func readGT(r *codec.Reader) (*bn256.GT, error) {
	b, err := r.Element()
	if err != nil {
		return nil, err
	}
	e := new(bn256.GT)
	if _, err := e.Unmarshal(b); err != nil {
		return nil, errors.Wrap(err, "GT element")
	}
	return e, nil
}

// MarshalPublicParams: f g1 g2 g^λ
func MarshalPublicParams(pp *PublicParams) []byte {
	w := codec.NewWriter()
	w.Element(pp.F.Marshal())
	w.Element(pp.G1.Marshal())
	w.Element(pp.G2.Marshal())
	w.Element(pp.GLambda.Marshal())
	return w.Encode()
}

func UnmarshalPublicParams(data []byte) (*PublicParams, error) {
	const artifact = "public params"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	pp := new(PublicParams)
	if pp.F, err = readG1(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if pp.G1, err = readG1(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if pp.G2, err = readG2(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if pp.GLambda, err = readG2(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	return pp, loadErr(artifact, r.Done())
}

// MarshalMasterKey: λ
func MarshalMasterKey(msk *MasterKey) []byte {
	w := codec.NewWriter()
	w.Scalar(msk.Lambda)
	return w.Encode()
}

func UnmarshalMasterKey(data []byte) (*MasterKey, error) {
	const artifact = "master key"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	lambda, err := r.Scalar()
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	return &MasterKey{Lambda: lambda}, loadErr(artifact, r.Done())
}

// MarshalATT: id version size name...
func MarshalATT(a *Authority) []byte {
	w := codec.NewWriter()
	w.Int(a.ID)
	w.Int64(a.Version)
	w.Size(len(a.ATT))
	for _, name := range a.ATT {
		w.String(name)
	}
	return w.Encode()
}

// MarshalASK: size (α y β)...
func MarshalASK(a *Authority) []byte {
	w := codec.NewWriter()
	w.Size(len(a.ASK))
	for _, k := range a.ASK {
		w.Scalar(k.Alpha)
		w.Scalar(k.Y)
		w.Scalar(k.Beta)
	}
	return w.Encode()
}

// MarshalAPK: size (e(g,g)^α g^y g^β)...
func MarshalAPK(a *Authority) []byte {
	w := codec.NewWriter()
	w.Size(len(a.APK))
	for _, k := range a.APK {
		w.Element(k.EggAlpha.Marshal())
		w.Element(k.GY.Marshal())
		w.Element(k.GBeta.Marshal())
	}
	return w.Encode()
}

// UnmarshalAuthority rebuilds an authority; ask may be nil to load the public half only.
func UnmarshalAuthority(att, ask, apk []byte) (*Authority, error) {
	a := new(Authority)

	r, err := codec.NewReader(att)
	if err != nil {
		return nil, loadErr("ATT", err)
	}
	if a.ID, err = r.Int(); err != nil {
		return nil, loadErr("ATT", err)
	}
	if a.Version, err = r.Int64(); err != nil {
		return nil, loadErr("ATT", err)
	}
	n, err := r.Size()
	if err != nil {
		return nil, loadErr("ATT", err)
	}
	a.ATT = make([]string, n)
	for i := range a.ATT {
		if a.ATT[i], err = r.String(); err != nil {
			return nil, loadErr("ATT", err)
		}
	}
	if err := r.Done(); err != nil {
		return nil, loadErr("ATT", err)
	}

	if ask != nil {
		if r, err = codec.NewReader(ask); err != nil {
			return nil, loadErr("ASK", err)
		}
		if n, err = r.Size(); err != nil {
			return nil, loadErr("ASK", err)
		}
		a.ASK = make([]*AttributeSecret, n)
		for i := range a.ASK {
			k := new(AttributeSecret)
			if k.Alpha, err = r.Scalar(); err != nil {
				return nil, loadErr("ASK", err)
			}
			if k.Y, err = r.Scalar(); err != nil {
				return nil, loadErr("ASK", err)
			}
			if k.Beta, err = r.Scalar(); err != nil {
				return nil, loadErr("ASK", err)
			}
			a.ASK[i] = k
		}
		if err := r.Done(); err != nil {
			return nil, loadErr("ASK", err)
		}
	}

	if r, err = codec.NewReader(apk); err != nil {
		return nil, loadErr("APK", err)
	}
	if n, err = r.Size(); err != nil {
		return nil, loadErr("APK", err)
	}
	a.APK = make([]*AttributePublic, n)
	for i := range a.APK {
		k := new(AttributePublic)
		if k.EggAlpha, err = readGT(r); err != nil {
			return nil, loadErr("APK", err)
		}
		if k.GY, err = readG2(r); err != nil {
			return nil, loadErr("APK", err)
		}
		if k.GBeta, err = readG2(r); err != nil {
			return nil, loadErr("APK", err)
		}
		a.APK[i] = k
	}
	if err := r.Done(); err != nil {
		return nil, loadErr("APK", err)
	}

	if err := a.Validate(); err != nil {
		return nil, loadErr("authority", err)
	}
	return a, nil
}

// MarshalSecretKey: gid size (authority attr K1 K3 K4)...
func MarshalSecretKey(sk *UserSecretKey) []byte {
	w := codec.NewWriter()
	w.String(sk.GID)
	w.Size(len(sk.Keys))
	for _, k := range sk.Keys {
		w.Int(k.Authority)
		w.String(k.Attr)
		w.Element(k.K1.Marshal())
		w.Element(k.K3.Marshal())
		w.Element(k.K4.Marshal())
	}
	return w.Encode()
}

func UnmarshalSecretKey(data []byte) (*UserSecretKey, error) {
	const artifact = "secret key"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	sk := new(UserSecretKey)
	if sk.GID, err = r.String(); err != nil {
		return nil, loadErr(artifact, err)
	}
	n, err := r.Size()
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	sk.Keys = make([]*AttributeKey, n)
	for k := range sk.Keys {
		key := new(AttributeKey)
		if key.Authority, err = r.Int(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if key.Attr, err = r.String(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if key.K1, err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
		if key.K3, err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
		if key.K4, err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
		sk.Keys[k] = key
	}
	return sk, loadErr(artifact, r.Done())
}

// MarshalTrapdoor: size (authority attr T1)... T2 T3 size T4... T5
func MarshalTrapdoor(td *Trapdoor) []byte {
	w := codec.NewWriter()
	w.Size(len(td.T1))
	for k, t1 := range td.T1 {
		w.Int(td.Authorities[k])
		w.String(td.Attrs[k])
		w.Element(t1.Marshal())
	}
	w.Scalar(td.T2)
	w.Scalar(td.T3)
	w.Size(len(td.T4))
	for _, t4 := range td.T4 {
		w.Scalar(t4)
	}
	w.Element(td.T5.Marshal())
	return w.Encode()
}

func UnmarshalTrapdoor(data []byte) (*Trapdoor, error) {
	const artifact = "trapdoor"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	n, err := r.Size()
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	td := &Trapdoor{Authorities: make([]int, n), Attrs: make([]string, n), T1: make([]*bn256.G1, n)}
	for k := 0; k < n; k++ {
		if td.Authorities[k], err = r.Int(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if td.Attrs[k], err = r.String(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if td.T1[k], err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	if td.T2, err = r.Scalar(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if td.T3, err = r.Scalar(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if td.T4, err = readScalars(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if td.T5, err = readGT(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	return td, loadErr(artifact, r.Done())
}

// MarshalTransformKey: TK2 size (authority attr TK3 TK4)...
func MarshalTransformKey(tk *TransformKey) []byte {
	w := codec.NewWriter()
	w.Element(tk.TK2.Marshal())
	w.Size(len(tk.TK3))
	for k := range tk.TK3 {
		w.Int(tk.Authorities[k])
		w.String(tk.Attrs[k])
		w.Element(tk.TK3[k].Marshal())
		w.Element(tk.TK4[k].Marshal())
	}
	return w.Encode()
}

func UnmarshalTransformKey(data []byte) (*TransformKey, error) {
	const artifact = "transformation key"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	tk := new(TransformKey)
	if tk.TK2, err = readG1(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	n, err := r.Size()
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	tk.Authorities = make([]int, n)
	tk.Attrs = make([]string, n)
	tk.TK3 = make([]*bn256.G1, n)
	tk.TK4 = make([]*bn256.G1, n)
	for k := 0; k < n; k++ {
		if tk.Authorities[k], err = r.Int(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if tk.Attrs[k], err = r.String(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if tk.TK3[k], err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
		if tk.TK4[k], err = readG1(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	return tk, loadErr(artifact, r.Done())
}

// MarshalCiphertext: size (authority I)... I0 I1 I2 I3 size I4... size I5... E1 size E2... data iv policy
func MarshalCiphertext(ct *Ciphertext) []byte {
	w := codec.NewWriter()
	w.Size(len(ct.I))
	for i, e := range ct.I {
		w.Int(ct.Authorities[i])
		w.Element(e.Marshal())
	}
	w.Element(ct.I0.Marshal())
	w.Element(ct.I1.Marshal())
	w.Element(ct.I2.Marshal())
	w.Element(ct.I3.Marshal())
	w.Size(len(ct.I4))
	for _, e := range ct.I4 {
		w.Element(e.Marshal())
	}
	w.Size(len(ct.I5))
	for _, x := range ct.I5 {
		w.Scalar(x)
	}
	w.Element(ct.E1.Marshal())
	w.Size(len(ct.E2))
	for _, e := range ct.E2 {
		w.Element(e.Marshal())
	}
	w.Bytes(ct.Data)
	w.Bytes(ct.IV)
	w.String(ct.Policy)
	return w.Encode()
}

func UnmarshalCiphertext(data []byte) (*Ciphertext, error) {
	const artifact = "ciphertext"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	ct := new(Ciphertext)
	n, err := r.Size()
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	ct.Authorities = make([]int, n)
	ct.I = make([]*bn256.GT, n)
	for i := range ct.I {
		if ct.Authorities[i], err = r.Int(); err != nil {
			return nil, loadErr(artifact, err)
		}
		if ct.I[i], err = readGT(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	for _, dst := range []**bn256.G2{&ct.I0, &ct.I1, &ct.I2, &ct.I3} {
		if *dst, err = readG2(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	if n, err = r.Size(); err != nil {
		return nil, loadErr(artifact, err)
	}
	ct.I4 = make([]*bn256.G2, n)
	for i := range ct.I4 {
		if ct.I4[i], err = readG2(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	if ct.I5, err = readScalars(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if ct.E1, err = readGT(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if n, err = r.Size(); err != nil {
		return nil, loadErr(artifact, err)
	}
	ct.E2 = make([]*bn256.GT, n)
	for i := range ct.E2 {
		if ct.E2[i], err = readGT(r); err != nil {
			return nil, loadErr(artifact, err)
		}
	}
	if ct.Data, err = r.Bytes(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if ct.IV, err = r.Bytes(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if ct.Policy, err = r.String(); err != nil {
		return nil, loadErr(artifact, err)
	}
	return ct, loadErr(artifact, r.Done())
}

// MarshalPartialCiphertext: TI TTI data iv N
func MarshalPartialCiphertext(out *PartialCiphertext) []byte {
	w := codec.NewWriter()
	w.Element(out.TI.Marshal())
	w.Element(out.TTI.Marshal())
	w.Bytes(out.Data)
	w.Bytes(out.IV)
	w.Int(out.N)
	return w.Encode()
}

func UnmarshalPartialCiphertext(data []byte) (*PartialCiphertext, error) {
	const artifact = "partial ciphertext"
	r, err := codec.NewReader(data)
	if err != nil {
		return nil, loadErr(artifact, err)
	}
	out := new(PartialCiphertext)
	if out.TI, err = readGT(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if out.TTI, err = readGT(r); err != nil {
		return nil, loadErr(artifact, err)
	}
	if out.Data, err = r.Bytes(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if out.IV, err = r.Bytes(); err != nil {
		return nil, loadErr(artifact, err)
	}
	if out.N, err = r.Int(); err != nil {
		return nil, loadErr(artifact, err)
	}
	return out, loadErr(artifact, r.Done())
}

func readScalars(r *codec.Reader) ([]*big.Int, error) {
	n, err := r.Size()
	if err != nil {
		return nil, err
	}
	xs := make([]*big.Int, n)
	for j := range xs {
		if xs[j], err = r.Scalar(); err != nil {
			return nil, err
		}
	}
	return xs, nil
}
