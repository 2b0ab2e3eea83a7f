package tor

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 30*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q, expected %q", client.ProxyAddress(), "127.0.0.1:9050")
		}
		if client.ProxyURL() != "socks5h://127.0.0.1:9050" {
			t.Errorf("ProxyURL() = %q", client.ProxyURL())
		}
	})

	t.Run("invalid address returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1", 30*time.Second)
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests the proxy address validation function.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:9050", true},
		{"valid IPv6 with port", "[::1]:9050", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"port zero", "127.0.0.1:0", false},
		{"port too large", "127.0.0.1:70000", false},
		{"non-numeric port", "127.0.0.1:tor", false},
		{"multiple colons", "127.0.0.1:9050:extra", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

// TestProxyStatus tests the status strings and sentinel mapping.
func TestProxyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  ProxyStatus
		str     string
		wantErr error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not Tor)", ErrProxyNotTor},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			t.Parallel()
			if tt.status.String() != tt.str {
				t.Errorf("String() = %q, want %q", tt.status.String(), tt.str)
			}
			if !errors.Is(tt.status.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", tt.status.Err(), tt.wantErr)
			}
		})
	}

	if ProxyStatus(99).String() != "unknown" {
		t.Error("expected unknown status string")
	}
	if ProxyStatus(99).Err() == nil {
		t.Error("expected error for unknown status")
	}
}

// fakeProxy accepts one connection and answers the SOCKS5 greeting and the
// CONNECT request with the given raw replies. A nil reply closes the connection.
func fakeProxy(t *testing.T, greeting, connectReply []byte) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		if greeting == nil {
			return
		}
		_, _ = conn.Write(greeting)

		req := make([]byte, 256)
		_, _ = conn.Read(req)
		if connectReply == nil {
			return
		}
		_, _ = conn.Write(connectReply)
	}()

	return listener.Addr().String()
}

// TestCheckConnection tests the SOCKS5 handshake probe against fake proxies.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		greeting     []byte
		connectReply []byte
		want         ProxyStatus
	}{
		{
			name:         "tor-like proxy",
			greeting:     []byte{0x05, 0x00},
			connectReply: []byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
			want:         ProxyStatusOK,
		},
		{
			name:     "http server",
			greeting: []byte("HTTP/1.1 200 OK\r\n\r\n"),
			want:     ProxyStatusWrongType,
		},
		{
			name:     "socks5 requiring auth",
			greeting: []byte{0x05, 0xFF},
			want:     ProxyStatusWrongType,
		},
		{
			name:         "wrong version in connect reply",
			greeting:     []byte{0x05, 0x00},
			connectReply: []byte{0x04, 0x00, 0x00, 0x01},
			want:         ProxyStatusWrongType,
		},
		{
			name: "connection closed after greeting",
			want: ProxyStatusWrongType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			addr := fakeProxy(t, tt.greeting, tt.connectReply)
			client, err := NewClient(addr, 30*time.Second)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			if got := client.CheckConnection(context.Background()); got != tt.want {
				t.Errorf("CheckConnection() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		addr := listener.Addr().String()
		listener.Close()

		client, err := NewClient(addr, 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if got := client.CheckConnection(context.Background()); got != ProxyStatusCannotConnect {
			t.Errorf("CheckConnection() = %v, want %v", got, ProxyStatusCannotConnect)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59998", 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		status := client.CheckConnection(ctx)
		if status != ProxyStatusCannotConnect && status != ProxyStatusTimeout {
			t.Errorf("expected ProxyStatusCannotConnect or ProxyStatusTimeout, got %v", status)
		}
	})
}

// TestTransport tests that the transport dials through the client.
func TestTransport(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050", time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	tr := client.Transport()
	if tr.DialContext == nil {
		t.Error("expected DialContext to be set")
	}
	if tr.Proxy != nil {
		t.Error("expected no HTTP proxy function; SOCKS happens in DialContext")
	}
	if tr.TLSClientConfig == nil {
		t.Error("expected TLS config")
	}
}

// TestDialContext tests that dialing honors a cancelled context.
func TestDialContext(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050", 30*time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.DialContext(ctx, "tcp", "scholar.google.com:443"); err == nil {
		t.Error("expected error with cancelled context")
	}
}
