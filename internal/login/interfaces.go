package login

//go:generate mockgen -source=interfaces.go -destination=gomock/mock_interfaces.go -package=logingomock

import (
	"context"

	"github.com/sandeepkv93/loginform/internal/form"
)

// Authenticator performs the outbound login call. A nil error means the
// endpoint accepted the credentials.
type Authenticator interface {
	Login(ctx context.Context, creds form.Credentials) error
}

// Notifier shows the transient success notice.
type Notifier interface {
	LoggedIn(ctx context.Context, email string)
}
