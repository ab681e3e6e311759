package timestamp

import (
	"crypto"
	"crypto/rand"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
)

// hashAlgorithmOIDs maps the hash algorithms spec §4.6/§4.8 names to
// their AlgorithmIdentifier OIDs.
var hashAlgorithmOIDs = map[crypto.Hash]asn1.ObjectIdentifier{
	crypto.SHA1:   {1, 3, 14, 3, 2, 26},
	crypto.SHA256: {2, 16, 840, 1, 101, 3, 4, 2, 1},
	crypto.SHA384: {2, 16, 840, 1, 101, 3, 4, 2, 2},
	crypto.SHA512: {2, 16, 840, 1, 101, 3, 4, 2, 3},
}

// buildRequest builds a DER-encoded TimeStampReq over signatureValue,
// per spec §4.8 steps 1-2: hash the bytes, random 64-bit nonce,
// certReq=true, no policy.
func buildRequest(signatureValue []byte, hash crypto.Hash) (der []byte, nonce *big.Int, err error) {
	oid, ok := hashAlgorithmOIDs[hash]
	if !ok {
		return nil, nil, fmt.Errorf("timestamp: unsupported hash algorithm %v", hash)
	}

	h := hash.New()
	h.Write(signatureValue)
	hashed := h.Sum(nil)

	nonceBytes := make([]byte, 8)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, nil, fmt.Errorf("timestamp: generating nonce: %w", err)
	}
	nonce = new(big.Int).SetBytes(nonceBytes)

	req := timeStampReq{
		Version: 1,
		MessageImprint: messageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: oid},
			HashedMessage: hashed,
		},
		Nonce:   nonce,
		CertReq: true,
	}

	der, err = asn1.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("timestamp: encoding TimeStampReq: %w", err)
	}
	return der, nonce, nil
}
