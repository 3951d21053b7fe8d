package tenant

import "testing"

func TestNormalizeHostname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme.example.com", "acme.example.com"},
		{"ACME.Example.COM", "acme.example.com"},
		{"  acme.example.com  ", "acme.example.com"},
		{"acme.example.com:8443", "acme.example.com"},
		{" ACME.Example.COM:8443 ", "acme.example.com"},
		{"localhost:3000", "localhost"},
		{"192.0.2.10:443", "192.0.2.10"},
		{"[::1]:8080", "[::1]"},
		{"[2001:db8::1]", "[2001:db8::1]"},
		{"::1", "::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHostname(tt.in); got != tt.want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{Name: "Acme", Hostname: "acme.example.com"}, false},
		{"valid with port", CreateRequest{Name: "Acme", Hostname: "acme.example.com:8443"}, false},
		{"missing name", CreateRequest{Hostname: "acme.example.com"}, true},
		{"missing hostname", CreateRequest{Name: "Acme"}, true},
		{"whitespace hostname", CreateRequest{Name: "Acme", Hostname: "   "}, true},
		{"hostname with path", CreateRequest{Name: "Acme", Hostname: "acme.example.com/admin"}, true},
		{"hostname with userinfo", CreateRequest{Name: "Acme", Hostname: "user@acme.example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	// Empty hostname means "leave unchanged", not "invalid".
	if err := (&UpdateRequest{Name: "Renamed"}).Validate(); err != nil {
		t.Errorf("Validate() with no hostname = %v, want nil", err)
	}
	if err := (&UpdateRequest{Hostname: "bad host"}).Validate(); err == nil {
		t.Error("Validate() accepted a hostname with spaces")
	}
}
