package video

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsecureProvisioner mints placeholder tokens for local development when no
// Twilio credentials are configured. The tokens grant nothing.
type InsecureProvisioner struct{}

// NewInsecureProvisioner creates an InsecureProvisioner.
func NewInsecureProvisioner() *InsecureProvisioner {
	return &InsecureProvisioner{}
}

// AccessToken returns a unique placeholder token.
func (i *InsecureProvisioner) AccessToken(ctx context.Context, townID, participantID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("insecure-%s-%s-%s", townID, participantID, uuid.NewString()), nil
}
