package license

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/neurospin/internal/storage"
)

const db = `{"licenses":[
	{"key":"NEURO-DEMO-2025","isActive":true,"owner":"Demo User"},
	{"key":"NEURO-OLD-2023","isActive":false,"owner":"Old User","expirationDate":"2023-12-31"}
]}`

func newServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerify(t *testing.T) {
	srv := newServer(t, db, http.StatusOK)
	gw := NewGateway(srv.URL, time.Second, zerolog.Nop())

	tests := []struct {
		key   string
		valid bool
		msg   string
		owner string
	}{
		{"NEURO-DEMO-2025", true, MsgValid, "Demo User"},
		{"  NEURO-DEMO-2025 ", true, MsgValid, "Demo User"},
		{"BAD-KEY", false, MsgInvalid, ""},
		{"neuro-demo-2025", false, MsgInvalid, ""},
		{"NEURO-OLD-2023", false, MsgDeactivated, "Old User"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			res := gw.Verify(context.Background(), tt.key)
			if res.Valid != tt.valid || res.Message != tt.msg || res.Owner != tt.owner {
				t.Errorf("Verify(%q) = %+v", tt.key, res)
			}
		})
	}
}

func TestVerifyUnreachable(t *testing.T) {
	for name, srv := range map[string]*httptest.Server{
		"status":  newServer(t, db, http.StatusInternalServerError),
		"garbage": newServer(t, "not json", http.StatusOK),
	} {
		res := NewGateway(srv.URL, time.Second, zerolog.Nop()).Verify(context.Background(), "NEURO-DEMO-2025")
		if res.Valid || res.Message != MsgUnreachable {
			t.Errorf("%s: got %+v", name, res)
		}
	}

	res := NewGateway("http://127.0.0.1:0/licenses.json", time.Second, zerolog.Nop()).Verify(context.Background(), "X")
	if res.Valid || res.Message != MsgUnreachable {
		t.Errorf("closed port: got %+v", res)
	}
}

type fixedVerifier Result

func (f fixedVerifier) Verify(context.Context, string) Result { return Result(f) }

func TestActivateAndStatus(t *testing.T) {
	st := storage.New(t.TempDir())
	a := NewActivator(fixedVerifier{Valid: true, Message: MsgValid, Owner: "Demo User"}, st, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	if s := a.Status(); s.Active {
		t.Fatal("fresh store should not be active")
	}

	res, err := a.Activate(context.Background(), "NEURO-DEMO-2025")
	if err != nil || !res.Valid {
		t.Fatalf("Activate = %+v, %v", res, err)
	}

	s := a.Status()
	if !s.Active || s.Record.Owner != "Demo User" || s.Record.Key != "NEURO-DEMO-2025" {
		t.Errorf("status = %+v", s)
	}
	if !s.Record.ActivationDate.Equal(a.now()) {
		t.Errorf("activation date = %v", s.Record.ActivationDate)
	}

	// a fresh activator over the same directory sees the binding
	if !NewActivator(fixedVerifier{}, storage.New(st.Dir()), zerolog.Nop()).Status().Active {
		t.Error("activation did not persist")
	}

	if err := a.Deactivate(); err != nil {
		t.Fatal(err)
	}
	if a.Status().Active {
		t.Error("still active after deactivate")
	}
}

func TestActivateRejected(t *testing.T) {
	st := storage.New(t.TempDir())
	a := NewActivator(fixedVerifier{Message: MsgInvalid}, st, zerolog.Nop())
	res, err := a.Activate(context.Background(), "BAD-KEY")
	if err != nil || res.Valid {
		t.Fatalf("Activate = %+v, %v", res, err)
	}
	if _, err := st.LoadLicense(); err == nil {
		t.Error("rejected key should not be stored")
	}
}

func TestStatusOtherDevice(t *testing.T) {
	dir := t.TempDir()
	st := storage.New(dir)
	if err := st.SaveLicense(storage.LicenseRecord{Key: "K", Owner: "O", DeviceID: "another"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.DeviceID(); err != nil {
		t.Fatal(err)
	}
	s := NewActivator(fixedVerifier{}, st, zerolog.Nop()).Status()
	if s.Active || s.Reason != "activated on another device" {
		t.Errorf("status = %+v", s)
	}

	if err := os.WriteFile(filepath.Join(dir, "license.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if s := NewActivator(fixedVerifier{}, st, zerolog.Nop()).Status(); s.Active {
		t.Error("corrupt record should not be active")
	}
}

func TestStatusGarbledDeviceID(t *testing.T) {
	dir := t.TempDir()
	st := storage.New(dir)
	a := NewActivator(fixedVerifier{Valid: true, Message: MsgValid, Owner: "O"}, st, zerolog.Nop())
	if err := st.SaveLicense(storage.LicenseRecord{Key: "K", Owner: "O", DeviceID: "dev"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "device_id"), []byte("not-a-uuid"), 0644); err != nil {
		t.Fatal(err)
	}

	s := a.Status()
	if s.Active || s.Reason != "device id unavailable" {
		t.Errorf("status = %+v", s)
	}
	if _, err := a.Activate(context.Background(), "K"); !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("Activate err = %v, want ErrCorrupt", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "device_id"))
	if string(data) != "not-a-uuid" {
		t.Errorf("device id replaced with %q", data)
	}
}
