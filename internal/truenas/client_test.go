package truenas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "http://")
	hostName, portText, ok := strings.Cut(host, ":")
	if !ok {
		t.Fatalf("unexpected test server address %q", server.URL)
	}

	port := 0
	for _, ch := range portText {
		port = port*10 + int(ch-'0')
	}

	client, err := NewClient(ClientConfig{Host: hostName, Port: port, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestListDisks(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2.0/disk" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[
			{
				"identifier": "{serial_lunid}WD-ABC123_5000c500eb02b449",
				"name": "sda",
				"serial": "WD-ABC123",
				"size": 4000787030016,
				"model": "WDC WD40EFRX",
				"type": "HDD",
				"pool": "tank",
				"hddstandby": "10"
			},
			{
				"identifier": "",
				"name": "nvme0n1",
				"serial": "S4EVNX0N",
				"size": 500107862016,
				"model": "Samsung SSD 980",
				"type": "SSD",
				"pool": "",
				"hddstandby": "ALWAYS ON"
			}
		]`))
	}))

	disks, err := client.ListDisks(context.Background())
	if err != nil {
		t.Fatalf("ListDisks() error = %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(disks) != 2 {
		t.Fatalf("expected 2 disks, got %d", len(disks))
	}
	if disks[0].Identifier != "{serial_lunid}WD-ABC123_5000c500eb02b449" {
		t.Fatalf("unexpected identifier: %+v", disks[0])
	}
	if disks[0].Type != "hdd" || disks[0].StandbyTimer != "10" || disks[0].SizeBytes != 4000787030016 {
		t.Fatalf("unexpected disk mapping: %+v", disks[0])
	}
	// Empty identifier falls back to the device name.
	if disks[1].Identifier != "nvme0n1" {
		t.Fatalf("unexpected fallback identifier: %+v", disks[1])
	}
}

func TestGetPoolsAndSystemInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2.0/pool":
			w.Write([]byte(`[{"id": 1, "name": "tank", "status": "ONLINE", "size": 1000, "allocated": 400, "free": 600}]`))
		case "/api/v2.0/system/info":
			w.Write([]byte(`{"hostname": "nas", "version": "TrueNAS-SCALE-24.10.2", "uptime_seconds": 86400}`))
		default:
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()

	pools, err := client.GetPools(ctx)
	if err != nil {
		t.Fatalf("GetPools() error = %v", err)
	}
	if len(pools) != 1 || pools[0].Name != "tank" || pools[0].UsedBytes != 400 {
		t.Fatalf("unexpected pool mapping: %+v", pools)
	}

	system, err := client.GetSystemInfo(ctx)
	if err != nil {
		t.Fatalf("GetSystemInfo() error = %v", err)
	}
	if system.Hostname != "nas" || system.UptimeSeconds != 86400 {
		t.Fatalf("unexpected system info: %+v", system)
	}
}

func TestGetAlerts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": "a1", "level": "WARNING", "formatted": "Pool tank is degraded", "source": "zfs", "dismissed": false, "datetime": {"$date": 1756500000000}}
		]`))
	}))

	alerts, err := client.GetAlerts(context.Background())
	if err != nil {
		t.Fatalf("GetAlerts() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].Level != "WARNING" || alerts[0].Dismissed {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
	if alerts[0].Datetime.Unix() != 1756500000 {
		t.Fatalf("unexpected alert time: %v", alerts[0].Datetime)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.ListDisks(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 401")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 *APIError, got %v", err)
	}
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	hostName, portText, _ := strings.Cut(host, ":")
	port := 0
	for _, ch := range portText {
		port = port*10 + int(ch-'0')
	}

	client, err := NewClient(ClientConfig{Host: hostName, Port: port})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.ListDisks(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsConnectionError(err) {
		t.Fatalf("expected connection error classification, got: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected error for missing host")
	}
	if _, err := NewClient(ClientConfig{Host: "nas", Port: 99999}); err == nil {
		t.Fatal("expected error for invalid port")
	}
}
