package sysd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/login1"
	"github.com/pkg/errors"
)

// activeState is the systemd unit property value that marks a unit as up.
const activeState = "active"

// loginManager is the slice of login1.Conn the client uses.
type loginManager interface {
	Reboot(askForAuth bool)
	Close()
}

// unitManager is the slice of dbus.Conn the client uses.
type unitManager interface {
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*dbus.Property, error)
	Close()
}

// Client talks to systemd over D-Bus for the two things the sequencer
// needs: requesting the reboot between the phases and waiting for
// docker.service after it. Connections are opened per call, so a Client
// can be built unconditionally without touching the system bus.
type Client struct {
	newLogin     func() (loginManager, error)
	newUnits     func(ctx context.Context) (unitManager, error)
	pollInterval time.Duration
}

// NewClient creates a Client backed by the system bus.
func NewClient() *Client {
	return &Client{
		newLogin: func() (loginManager, error) {
			conn, err := login1.New()
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		newUnits: func(ctx context.Context) (unitManager, error) {
			conn, err := dbus.NewWithContext(ctx)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		pollInterval: time.Second,
	}
}

// Reboot asks logind for an immediate reboot of the machine. It returns
// once the request is submitted; the caller should expect the process to
// be terminated shortly after.
func (c *Client) Reboot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := c.newLogin()
	if err != nil {
		return errors.Wrap(err, "failed to connect to logind")
	}
	defer conn.Close()

	conn.Reboot(false)
	return nil
}

// WaitUnitActive polls the unit's ActiveState until it reports active or
// the timeout elapses. Lookup errors are retried: right after boot the
// unit may not even be loaded yet.
func (c *Client) WaitUnitActive(ctx context.Context, unit string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := c.newUnits(waitCtx)
	if err != nil {
		return errors.Wrap(err, "failed to connect to systemd")
	}
	defer conn.Close()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	lastState := "unknown"
	for {
		prop, err := conn.GetUnitPropertyContext(waitCtx, unit, "ActiveState")
		if err == nil {
			if state, ok := prop.Value.Value().(string); ok {
				lastState = state
				if state == activeState {
					return nil
				}
			}
		}

		select {
		case <-waitCtx.Done():
			return errors.Wrapf(waitCtx.Err(),
				"unit %s did not become active within %s (last state %s)", unit, timeout, lastState)
		case <-ticker.C:
		}
	}
}
