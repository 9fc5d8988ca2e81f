package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchDevices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gateway":"shelly-1","devices":[
			{"mac":"A4:C1:38:00:11:22","name":"ATC_001122","temperature":21.37,"humidity":48.2,"battery":87,"rssi":-64},
			{"mac":"A4:C1:38:33:44:55","temperature":null}
		]}`))
	}))
	defer srv.Close()

	payload, err := FetchDevices(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchDevices: %v", err)
	}
	if payload.Gateway != "shelly-1" || len(payload.Devices) != 2 {
		t.Fatalf("payload = %+v", payload)
	}
	d := payload.Devices[0]
	if d.Address != "A4:C1:38:00:11:22" || d.Temperature == nil || *d.Temperature != 21.37 || d.RSSI == nil || *d.RSSI != -64 {
		t.Fatalf("device = %+v", d)
	}
	if payload.Devices[1].Temperature != nil {
		t.Fatal("null temperature decoded as a value")
	}
}

func TestFetchDevicesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte(`{"devices":`))
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := FetchDevices(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected status error")
	}
	if _, err := FetchDevices(context.Background(), srv.Client(), srv.URL+"/broken"); err == nil {
		t.Fatal("expected decode error")
	}
}
