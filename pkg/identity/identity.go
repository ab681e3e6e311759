// Package identity implements the "certificate and private-key
// provider" collaborator spec.md §1 asks the signing engine to treat as
// external: something capable of signing a digest with RSA or ECDSA and
// handing back its X.509 certificate chain.
package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"math/big"

	"github.com/pkg/errors"
)

// Identity is the signing-engine-facing view of a private key and its
// certificate chain, generalized from other_examples' X509KeyStore
// interface (RSA-only there) to also cover ECDSA, per spec.md §1.
type Identity interface {
	// Certificates returns the signing certificate first, followed by
	// any intermediates, leaf first (spec §4.6 step 5).
	Certificates() []*x509.Certificate
	// Sign produces a raw signature over digest, already hashed with
	// hash. The caller is responsible for mapping (key type, hash) to
	// the correct XML-DSig SignatureMethod URI.
	Sign(digest []byte, hash crypto.Hash) ([]byte, error)
	// PublicKeyAlgorithm reports whether the underlying key is RSA or
	// ECDSA, used to select the SignatureMethod URI family.
	PublicKeyAlgorithm() x509.PublicKeyAlgorithm
}

// CryptoFailure wraps errors from key loading, signing, or certificate
// decoding (spec §7's CryptoFailure(reason) kind).
type CryptoFailure struct {
	Reason string
	Err    error
}

func (e *CryptoFailure) Error() string {
	return "identity: " + e.Reason + ": " + e.Err.Error()
}

func (e *CryptoFailure) Unwrap() error { return e.Err }

func wrapCrypto(reason string, err error) error {
	if err == nil {
		return nil
	}
	return &CryptoFailure{Reason: reason, Err: errors.WithStack(err)}
}

// keyIdentity is the common Identity implementation shared by every
// concrete loader (PKCS#12 today; PKCS#11 or a raw PEM pair could be
// added the same way without touching the signing engine).
type keyIdentity struct {
	signer crypto.Signer
	chain  []*x509.Certificate
}

func (k *keyIdentity) Certificates() []*x509.Certificate { return k.chain }

func (k *keyIdentity) PublicKeyAlgorithm() x509.PublicKeyAlgorithm {
	switch k.signer.Public().(type) {
	case *rsa.PublicKey:
		return x509.RSA
	case *ecdsa.PublicKey:
		return x509.ECDSA
	default:
		return x509.UnknownPublicKeyAlgorithm
	}
}

func (k *keyIdentity) Sign(digest []byte, hash crypto.Hash) ([]byte, error) {
	var opts crypto.SignerOpts = hash
	sig, err := k.signer.Sign(rand.Reader, digest, opts)
	if err != nil {
		return nil, wrapCrypto("signing digest", err)
	}

	if ecdsaKey, ok := k.signer.Public().(*ecdsa.PublicKey); ok {
		sig, err = ecdsaDERToRaw(sig, ecdsaKey.Curve.Params().BitSize)
		if err != nil {
			return nil, wrapCrypto("re-encoding ECDSA signature", err)
		}
	}
	return sig, nil
}

// ecdsaASN1Signature mirrors the SEQUENCE{r,s} crypto.Signer.Sign hands
// back for an ECDSA key.
type ecdsaASN1Signature struct {
	R, S *big.Int
}

// ecdsaDERToRaw converts crypto.Signer's ASN.1 DER SEQUENCE{r,s} into
// the fixed-width big-endian r||s concatenation the #ecdsa-sha* XML-DSig
// SignatureMethod URIs require on the wire (RFC 6931 §2.4.1).
func ecdsaDERToRaw(der []byte, curveBitSize int) ([]byte, error) {
	var sig ecdsaASN1Signature
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, err
	}
	size := (curveBitSize + 7) / 8
	out := make([]byte, 2*size)
	sig.R.FillBytes(out[:size])
	sig.S.FillBytes(out[size:])
	return out, nil
}
