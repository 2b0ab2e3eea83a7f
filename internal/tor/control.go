package tor

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// controlTimeout bounds a whole control-port exchange.
const controlTimeout = 10 * time.Second

// cookieFile is the name of the control cookie tor writes to its data directory.
const cookieFile = "control_auth_cookie"

// Controller requests fresh circuits through a Tor control port.
type Controller struct {
	address string
	auth    tornago.ControlAuth
}

// NewController creates a Controller for the control port at address.
// An empty password uses null authentication.
func NewController(address, password string) (*Controller, error) {
	return newController(address, tornago.ControlAuthFromPassword(password))
}

// NewCookieController creates a Controller that authenticates with the
// cookie file tor wrote at cookiePath.
func NewCookieController(address, cookiePath string) (*Controller, error) {
	return newController(address, tornago.ControlAuthFromCookie(cookiePath))
}

func newController(address string, auth tornago.ControlAuth) (*Controller, error) {
	if !isValidProxyAddress(address) {
		return nil, ErrInvalidProxyAddress
	}
	return &Controller{address: address, auth: auth}, nil
}

// NewNym asks Tor to use new circuits for subsequent connections,
// which gives the next requests a different exit address.
// Tor ignores a NEWNYM sent less than ten seconds after the previous one.
func (c *Controller) NewNym(ctx context.Context) error {
	timeout := controlTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return ctx.Err()
	}

	client, err := tornago.NewControlClient(c.address, c.auth, timeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}
	defer client.Close()

	if err := client.Authenticate(); err != nil {
		return fmt.Errorf("%w: %w", ErrControlAuth, err)
	}
	if err := client.NewIdentity(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrControlRejected, err)
	}
	return nil
}
