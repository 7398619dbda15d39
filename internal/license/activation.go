package license

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/storage"
)

// Activator binds keys to the local device. The hosted database is
// read-only, so a key is not consumed on activation and may be activated on
// several devices.
type Activator struct {
	verifier Verifier
	store    *storage.Store
	log      zerolog.Logger
	now      func() time.Time
}

func NewActivator(v Verifier, store *storage.Store, log zerolog.Logger) *Activator {
	return &Activator{verifier: v, store: store, log: log, now: time.Now}
}

// Activate verifies key and on success persists the device binding. The
// returned error is only for local persistence failures.
func (a *Activator) Activate(ctx context.Context, key string) (Result, error) {
	key = strings.TrimSpace(key)
	res := a.verifier.Verify(ctx, key)
	if !res.Valid {
		return res, nil
	}

	deviceID, err := a.store.DeviceID()
	if err != nil {
		return res, fmt.Errorf("device id: %w", err)
	}
	rec := storage.LicenseRecord{
		Key:            key,
		Owner:          res.Owner,
		DeviceID:       deviceID,
		ActivationDate: a.now().UTC(),
	}
	if err := a.store.SaveLicense(rec); err != nil {
		return res, fmt.Errorf("save license: %w", err)
	}
	a.log.Info().Str("owner", res.Owner).Str("device", deviceID).Msg("license activated")
	return res, nil
}

type Status struct {
	Active bool
	Record *storage.LicenseRecord
	Reason string
}

// Status reports whether this device holds an activation record.
func (a *Activator) Status() Status {
	rec, err := a.store.LoadLicense()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Status{Reason: "not activated"}
		}
		a.log.Warn().Err(err).Msg("license record unreadable")
		return Status{Reason: "license record unreadable"}
	}

	deviceID, err := a.store.DeviceID()
	if err != nil {
		a.log.Warn().Err(err).Msg("device id unavailable")
		return Status{Record: rec, Reason: "device id unavailable"}
	}
	if rec.DeviceID != deviceID {
		return Status{Record: rec, Reason: "activated on another device"}
	}
	return Status{Active: true, Record: rec}
}

func (a *Activator) Deactivate() error {
	return a.store.ClearLicense()
}
