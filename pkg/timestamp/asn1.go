// Package timestamp implements the RFC 3161 countersignature builder
// (spec §4.8): build a TimeStampReq over a Signature's SignatureValue,
// send it to a TSA, validate the TimeStampResp, and embed the returned
// token into the signature part.
package timestamp

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"
)

// OIDs needed to parse a TimeStampToken's CMS envelope, grounded
// field-for-field on sigex-kz-ncatos's tspAsn.go — the one retrieved
// example implementing this exact wire format (RFC 3161 / RFC 5652).
var (
	oidSignedData         = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidTimeStampTokenInfo = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}
)

// PKIStatus values spec §4.8 step 5 accepts.
const (
	statusGranted         = 0
	statusGrantedWithMods = 1
)

// TimeStampReq ::= SEQUENCE {
//   version INTEGER { v1(1) },
//   messageImprint MessageImprint,
//   reqPolicy TSAPolicyId OPTIONAL,
//   nonce INTEGER OPTIONAL,
//   certReq BOOLEAN DEFAULT FALSE,
//   extensions [0] IMPLICIT Extensions OPTIONAL }
type timeStampReq struct {
	Version        int `asn1:"default:1"`
	MessageImprint messageImprint
	ReqPolicy      asn1.ObjectIdentifier `asn1:"optional,omitempty"`
	Nonce          *big.Int              `asn1:"optional,omitempty"`
	CertReq        bool                  `asn1:"optional,default:false"`
	Extensions     []pkix.Extension      `asn1:"optional,omitempty,tag:0"`
}

// MessageImprint ::= SEQUENCE { hashAlgorithm AlgorithmIdentifier, hashedMessage OCTET STRING }
type messageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

// TimeStampResp ::= SEQUENCE { status PKIStatusInfo, timeStampToken TimeStampToken OPTIONAL }
type timeStampResp struct {
	Status         pkiStatusInfo
	TimeStampToken contentInfoSignedData `asn1:"optional,omitempty"`
}

// PKIStatusInfo ::= SEQUENCE { status PKIStatus, statusString PKIFreeText OPTIONAL, failInfo PKIFailureInfo OPTIONAL }
type pkiStatusInfo struct {
	Status       int
	StatusString []asn1.RawValue `asn1:"optional,omitempty"`
	FailInfo     asn1.BitString  `asn1:"optional,omitempty"`
}

// contentInfoSignedData is the outer CMS ContentInfo wrapping a
// SignedData whose eContent is the TSTInfo (the actual timestamp).
type contentInfoSignedData struct {
	ContentType asn1.ObjectIdentifier
	Content     signedData `asn1:"explicit,tag:0"`
}

// SignedData ::= SEQUENCE { version, digestAlgorithms SET OF, encapContentInfo, certificates [0] OPTIONAL, crls [1] OPTIONAL, signerInfos SET OF }
type signedData struct {
	Version          int
	DigestAlgorithms []pkix.AlgorithmIdentifier `asn1:"set"`
	EncapContentInfo encapsulatedContentInfo
	Certificates     []asn1.RawValue `asn1:"optional,omitempty,tag:0"`
	CRLs             []asn1.RawValue `asn1:"optional,omitempty,tag:1"`
	SignerInfos      []asn1.RawValue `asn1:"set"`
}

// EncapsulatedContentInfo ::= SEQUENCE { eContentType, eContent [0] EXPLICIT OCTET STRING OPTIONAL }
type encapsulatedContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     []byte `asn1:"optional,omitempty,explicit,tag:0"`
}

// Accuracy ::= SEQUENCE { seconds INTEGER OPTIONAL, millis [0] INTEGER OPTIONAL, micros [1] INTEGER OPTIONAL }
type accuracy struct {
	Seconds int `asn1:"optional"`
	Millis  int `asn1:"optional,tag:0"`
	Micros  int `asn1:"optional,tag:1"`
}

// TSTInfo ::= SEQUENCE {
//   version, policy, messageImprint, serialNumber, genTime,
//   accuracy OPTIONAL, ordering DEFAULT FALSE, nonce OPTIONAL,
//   tsa [0] OPTIONAL, extensions [1] IMPLICIT OPTIONAL }
type tstInfo struct {
	Version        int `asn1:"default:1"`
	Policy         asn1.ObjectIdentifier
	MessageImprint messageImprint
	SerialNumber   *big.Int
	GenTime        time.Time        `asn1:"generalized"`
	Accuracy       accuracy         `asn1:"optional"`
	Ordering       bool             `asn1:"optional,default:false"`
	Nonce          *big.Int         `asn1:"optional"`
	TSA            asn1.RawValue    `asn1:"optional,tag:0"`
	Extensions     []pkix.Extension `asn1:"optional,tag:1"`
}
