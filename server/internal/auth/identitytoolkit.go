package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const (
	defaultCallTimeout = 10 * time.Second
	emailExists        = "EMAIL_EXISTS"
)

// IdentityToolkit implements Verifier and Provisioner against the Google
// Identity Toolkit relying-party API using a project API key.
type IdentityToolkit struct {
	svc     *identitytoolkit.Service
	timeout time.Duration
}

// NewIdentityToolkit builds a client. endpoint overrides the API base URL and
// may be empty.
func NewIdentityToolkit(ctx context.Context, apiKey, endpoint string, timeout time.Duration) (*IdentityToolkit, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit: new service: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &IdentityToolkit{svc: svc, timeout: timeout}, nil
}

// Verify resolves idToken to the account it was issued for. A token the
// provider rejects yields ErrUnauthenticated; transport failures are returned
// wrapped.
func (it *IdentityToolkit) Verify(ctx context.Context, idToken string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	resp, err := it.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		if isRejected(err) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("identitytoolkit: get account info: %w", err)
	}
	if len(resp.Users) == 0 || resp.Users[0].Email == "" {
		return Identity{}, ErrUnauthenticated
	}
	u := resp.Users[0]
	return Identity{UID: u.LocalId, Email: u.Email, EmailVerified: u.EmailVerified}, nil
}

// Invite creates an account for email with a random password, or reuses the
// existing one, then asks the provider to send a password-reset email that
// serves as the invitation.
func (it *IdentityToolkit) Invite(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	_, err := it.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: uuid.NewString(),
	}).Context(ctx).Do()
	if err != nil && !hasReason(err, emailExists) {
		return fmt.Errorf("identitytoolkit: signup %s: %w", email, err)
	}

	_, err = it.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("identitytoolkit: send invite to %s: %w", email, err)
	}
	return nil
}

// isRejected reports whether the provider refused the token itself, as
// opposed to failing or refusing our API key.
func isRejected(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest
}

func hasReason(err error, reason string) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if strings.Contains(gerr.Message, reason) {
		return true
	}
	for _, item := range gerr.Errors {
		if strings.Contains(item.Message, reason) || item.Reason == reason {
			return true
		}
	}
	return false
}
