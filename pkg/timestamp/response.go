package timestamp

import (
	"bytes"
	"crypto"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"
)

// Result is the outcome of a timestamp attempt (spec §4.8 "Return
// values: Success, Failed").
type Result struct {
	Success  bool
	Reason   string // populated when !Success
	TokenDER []byte // the raw CMS SignedData token, present on Success
	GenTime  time.Time
	Accuracy string // human-readable, best-effort; empty if the TSA didn't report one
}

// parseAndValidate decodes resp as a TimeStampResp and checks its
// status, messageImprint, nonce, and hash algorithm against the
// original request (spec §4.8 steps 5-6).
func parseAndValidate(body []byte, expectedImprint []byte, expectedNonce *big.Int, hash crypto.Hash) Result {
	var resp timeStampResp
	if _, err := asn1.Unmarshal(body, &resp); err != nil {
		return Result{Reason: fmt.Sprintf("parsing TimeStampResp: %v", err)}
	}

	if resp.Status.Status != statusGranted && resp.Status.Status != statusGrantedWithMods {
		return Result{Reason: fmt.Sprintf("TSA rejected request, status %d", resp.Status.Status)}
	}

	if !resp.TimeStampToken.ContentType.Equal(oidSignedData) {
		return Result{Reason: "timeStampToken is not a CMS SignedData"}
	}

	var info tstInfo
	if !resp.TimeStampToken.Content.EncapContentInfo.EContentType.Equal(oidTimeStampTokenInfo) {
		return Result{Reason: "SignedData does not encapsulate a TSTInfo"}
	}
	if _, err := asn1.Unmarshal(resp.TimeStampToken.Content.EncapContentInfo.EContent, &info); err != nil {
		return Result{Reason: fmt.Sprintf("parsing TSTInfo: %v", err)}
	}

	if !bytes.Equal(info.MessageImprint.HashedMessage, expectedImprint) {
		return Result{Reason: "messageImprint mismatch"}
	}
	oid, ok := hashAlgorithmOIDs[hash]
	if !ok || !info.MessageImprint.HashAlgorithm.Algorithm.Equal(oid) {
		return Result{Reason: "hash algorithm mismatch"}
	}
	if info.Nonce == nil || expectedNonce == nil || info.Nonce.Cmp(expectedNonce) != 0 {
		return Result{Reason: "nonce mismatch"}
	}

	tokenDER, err := asn1.Marshal(resp.TimeStampToken)
	if err != nil {
		return Result{Reason: fmt.Sprintf("re-encoding timeStampToken: %v", err)}
	}

	acc := ""
	if info.Accuracy.Seconds != 0 || info.Accuracy.Millis != 0 || info.Accuracy.Micros != 0 {
		acc = fmt.Sprintf("%ds %dms %dus", info.Accuracy.Seconds, info.Accuracy.Millis, info.Accuracy.Micros)
	}

	return Result{
		Success:  true,
		TokenDER: tokenDER,
		GenTime:  info.GenTime,
		Accuracy: acc,
	}
}
