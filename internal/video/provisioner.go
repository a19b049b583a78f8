// Package video provisions per-participant access credentials for a town's
// video room.
package video

import (
	"context"
	"fmt"

	twiliojwt "github.com/twilio/twilio-go/client/jwt"
)

// TwilioProvisioner issues Twilio access tokens carrying a video grant for
// the town's room. Token signing is local; no network call is made.
type TwilioProvisioner struct {
	accountSID string
	apiKeySID  string
	apiSecret  string
}

// NewTwilioProvisioner creates a TwilioProvisioner.
//
// Precondition: accountSID, apiKeySID, and apiSecret must be non-empty.
func NewTwilioProvisioner(accountSID, apiKeySID, apiSecret string) *TwilioProvisioner {
	return &TwilioProvisioner{
		accountSID: accountSID,
		apiKeySID:  apiKeySID,
		apiSecret:  apiSecret,
	}
}

// AccessToken returns a signed JWT granting participantID entry to the video
// room named after townID.
//
// Postcondition: Returns a non-empty token or a non-nil error.
func (t *TwilioProvisioner) AccessToken(ctx context.Context, townID, participantID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token := twiliojwt.CreateAccessToken(twiliojwt.AccessTokenParams{
		AccountSid:    t.accountSID,
		SigningKeySid: t.apiKeySID,
		Secret:        t.apiSecret,
		Identity:      participantID,
	})
	token.AddGrant(&twiliojwt.VideoGrant{Room: townID})

	signed, err := token.ToJwt()
	if err != nil {
		return "", fmt.Errorf("signing video token for room %q: %w", townID, err)
	}
	return signed, nil
}
