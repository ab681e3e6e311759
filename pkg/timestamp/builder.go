package timestamp

import (
	"context"
	"crypto"

	"github.com/pkg/errors"

	"github.com/vortex/vsixsign/pkg/xmldsig"
)

// Builder is the timestamp countersignature engine (spec §4.8).
type Builder struct {
	transport Transport
}

// NewBuilder returns a Builder that reaches TSAs through transport.
func NewBuilder(transport Transport) *Builder {
	return &Builder{transport: transport}
}

// Timestamp runs the full RFC 3161 exchange over sig's SignatureValue
// and, on success, embeds the token into sig's part. It never returns
// an error for a rejected or malformed TSA response — those surface as
// Result.Success == false, matching spec §5's "local recovery only for
// optional steps" policy; it does return an error for a misuse of the
// Signature handle (e.g. already removed) or a transport-level failure
// that prevented any response from being produced.
func (b *Builder) Timestamp(ctx context.Context, sig *xmldsig.Signature, tsaURL string, hash crypto.Hash) (Result, error) {
	sigValue, err := sig.SignatureValueBytes()
	if err != nil {
		return Result{}, errors.Wrap(err, "timestamp: reading SignatureValue")
	}

	reqDER, nonce, err := buildRequest(sigValue, hash)
	if err != nil {
		return Result{}, errors.Wrap(err, "timestamp: building TimeStampReq")
	}

	status, body, contentType, err := b.transport.Post(ctx, tsaURL, RequestContentType, reqDER)
	if err != nil {
		return Result{}, errors.Wrap(err, "timestamp: posting to TSA")
	}
	if status != 200 {
		return Result{Reason: "unexpected HTTP status from TSA"}, nil
	}
	if contentType != "" && contentType != ResponseContentType {
		return Result{Reason: "unexpected content type from TSA"}, nil
	}

	h := hash.New()
	h.Write(sigValue)
	expectedImprint := h.Sum(nil)

	result := parseAndValidate(body, expectedImprint, nonce, hash)
	if !result.Success {
		return result, nil
	}

	if err := sig.AppendTimestampObject(result.TokenDER); err != nil {
		return Result{}, errors.Wrap(err, "timestamp: embedding token")
	}
	return result, nil
}
