// Package license checks activation keys against a hosted JSON database
// and binds a verified key to this device.
package license

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/remote"
)

const (
	MsgValid       = "license valid"
	MsgInvalid     = "invalid license key"
	MsgDeactivated = "license has been deactivated or has expired"
	MsgUnreachable = "could not reach the license server, check your connection"
)

// Key is one entry of the hosted database.
type Key struct {
	Key            string `json:"key"`
	IsActive       bool   `json:"isActive"`
	Owner          string `json:"owner"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

type Database struct {
	Licenses []Key `json:"licenses"`
}

// Find returns the entry for key, matched exactly.
func (d Database) Find(key string) (Key, bool) {
	for _, k := range d.Licenses {
		if k.Key == key {
			return k, true
		}
	}
	return Key{}, false
}

type Result struct {
	Valid   bool
	Message string
	Owner   string
	// Expires is reported as stored; it is not enforced.
	Expires string
}

// Verifier checks a key.
type Verifier interface {
	Verify(ctx context.Context, key string) Result
}

type Gateway struct {
	url    string
	client *remote.Client
	log    zerolog.Logger
}

func NewGateway(url string, timeout time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{
		url:    url,
		client: remote.New(timeout, "neurospin-license"),
		log:    log,
	}
}

// Verify never returns an error: connectivity and decoding failures are
// reported as an invalid result with MsgUnreachable.
func (g *Gateway) Verify(ctx context.Context, key string) Result {
	key = strings.TrimSpace(key)

	var db Database
	if err := g.client.GetJSON(ctx, g.url, &db); err != nil {
		g.log.Warn().Err(err).Str("url", g.url).Msg("license check failed")
		return Result{Message: MsgUnreachable}
	}

	k, ok := db.Find(key)
	if !ok {
		g.log.Info().Msg("license key not found")
		return Result{Message: MsgInvalid}
	}
	if !k.IsActive {
		return Result{Message: MsgDeactivated, Owner: k.Owner, Expires: k.ExpirationDate}
	}
	return Result{Valid: true, Message: MsgValid, Owner: k.Owner, Expires: k.ExpirationDate}
}
