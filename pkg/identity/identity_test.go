package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"
)

func selfSignedCert(t *testing.T, pub crypto.PublicKey, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, signer)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	return cert
}

func TestKeyIdentity_RSA(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cert := selfSignedCert(t, &key.PublicKey, key)

	id := &keyIdentity{signer: key, chain: []*x509.Certificate{cert}}

	if id.PublicKeyAlgorithm() != x509.RSA {
		t.Errorf("got %v, want RSA", id.PublicKeyAlgorithm())
	}
	if len(id.Certificates()) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(id.Certificates()))
	}

	digest := sha256.Sum256([]byte("hello"))
	sig, err := id.Sign(digest[:], crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestKeyIdentity_ECDSA(t *testing.T) {
	t.Parallel()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cert := selfSignedCert(t, &key.PublicKey, key)

	id := &keyIdentity{signer: key, chain: []*x509.Certificate{cert}}
	if id.PublicKeyAlgorithm() != x509.ECDSA {
		t.Errorf("got %v, want ECDSA", id.PublicKeyAlgorithm())
	}

	digest := sha256.Sum256([]byte("hello"))
	sig, err := id.Sign(digest[:], crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// The XML-DSig wire format is fixed-width big-endian r||s, not the
	// ASN.1 DER SEQUENCE{r,s} crypto.Signer.Sign produces — verify the
	// shape, not just that some valid encoding of (r, s) verifies.
	size := (key.Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*size {
		t.Fatalf("expected a %d-byte raw r||s signature, got %d bytes", 2*size, len(sig))
	}
	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])
	if !ecdsa.Verify(&key.PublicKey, digest[:], r, s) {
		t.Error("ECDSA signature does not verify")
	}
}

func TestCryptoFailure_UnwrapsUnderlyingError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("boom")
	err := wrapCrypto("doing a thing", underlying)

	var cf *CryptoFailure
	if !errors.As(err, &cf) {
		t.Fatal("expected a *CryptoFailure")
	}
	if cf.Reason != "doing a thing" {
		t.Errorf("got reason %q", cf.Reason)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected CryptoFailure to unwrap to the underlying error")
	}
}

func TestLoadPKCS12_GarbageReturnsCryptoFailure(t *testing.T) {
	t.Parallel()

	_, err := LoadPKCS12([]byte("not a pkcs12 file"), "password")
	var cf *CryptoFailure
	if !errors.As(err, &cf) {
		t.Fatalf("expected *CryptoFailure, got %v", err)
	}
}
