package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"

	"github.com/pkg/errors"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// LoadPKCS12 decodes a .pfx/.p12 file into an Identity, the concrete
// collaborator the CLI (cmd/vsixsign) wires up for the `sign` command's
// --certificate/--password flags.
func LoadPKCS12(data []byte, password string) (Identity, error) {
	key, cert, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, wrapCrypto("decoding pkcs#12 identity", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, wrapCrypto("decoding pkcs#12 identity", errors.New("private key does not implement crypto.Signer"))
	}
	switch signer.Public().(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
	default:
		return nil, wrapCrypto("decoding pkcs#12 identity", errors.New("unsupported key type, want RSA or ECDSA"))
	}

	chain := append([]*x509.Certificate{cert}, caCerts...)
	return &keyIdentity{signer: signer, chain: chain}, nil
}
