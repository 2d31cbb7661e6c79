package util

import "testing"

func TestSplitIPMask(t *testing.T) {
	tests := []struct {
		in      string
		ip      string
		maskLen int
	}{
		{"192.168.1.10/24", "192.168.1.10", 24},
		{"10.0.0.1/30", "10.0.0.1", 30},
		{"192.168.1.10", "192.168.1.10", 0},
		{"192.168.1.10/abc", "192.168.1.10", 0},
	}
	for _, tt := range tests {
		ip, maskLen := SplitIPMask(tt.in)
		if ip != tt.ip || maskLen != tt.maskLen {
			t.Errorf("SplitIPMask(%q) = (%q, %d), want (%q, %d)", tt.in, ip, maskLen, tt.ip, tt.maskLen)
		}
	}
}

func TestDottedMask(t *testing.T) {
	tests := []struct {
		prefixLen int
		want      string
	}{
		{24, "255.255.255.0"},
		{16, "255.255.0.0"},
		{30, "255.255.255.252"},
		{32, "255.255.255.255"},
		{0, "0.0.0.0"},
	}
	for _, tt := range tests {
		got, err := DottedMask(tt.prefixLen)
		if err != nil {
			t.Errorf("DottedMask(%d) error: %v", tt.prefixLen, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DottedMask(%d) = %q, want %q", tt.prefixLen, got, tt.want)
		}
	}

	if _, err := DottedMask(33); err == nil {
		t.Error("DottedMask(33) should fail")
	}
	if _, err := DottedMask(-1); err == nil {
		t.Error("DottedMask(-1) should fail")
	}
}

func TestDefaultGatewayFor(t *testing.T) {
	if got := DefaultGatewayFor("192.168.56.20"); got != "192.168.56.1" {
		t.Errorf("DefaultGatewayFor = %q, want 192.168.56.1", got)
	}
	if got := DefaultGatewayFor("not-an-ip"); got != "" {
		t.Errorf("DefaultGatewayFor(non-IP) = %q, want empty", got)
	}
}

func TestNetworkAndWildcard(t *testing.T) {
	tests := []struct {
		cidr     string
		network  string
		wildcard string
	}{
		{"10.1.2.3/24", "10.1.2.0", "0.0.0.255"},
		{"172.16.0.0/16", "172.16.0.0", "0.0.255.255"},
		{"192.168.1.0/30", "192.168.1.0", "0.0.0.3"},
	}
	for _, tt := range tests {
		network, wildcard, err := NetworkAndWildcard(tt.cidr)
		if err != nil {
			t.Errorf("NetworkAndWildcard(%q) error: %v", tt.cidr, err)
			continue
		}
		if network != tt.network || wildcard != tt.wildcard {
			t.Errorf("NetworkAndWildcard(%q) = (%q, %q), want (%q, %q)",
				tt.cidr, network, wildcard, tt.network, tt.wildcard)
		}
	}

	if _, _, err := NetworkAndWildcard("10.1.2.3"); err == nil {
		t.Error("NetworkAndWildcard without prefix should fail")
	}
}

func TestValidateVLANID(t *testing.T) {
	for _, id := range []int{1, 100, 4094} {
		if err := ValidateVLANID(id); err != nil {
			t.Errorf("ValidateVLANID(%d) should pass: %v", id, err)
		}
	}
	for _, id := range []int{0, -5, 4095} {
		if err := ValidateVLANID(id); err == nil {
			t.Errorf("ValidateVLANID(%d) should fail", id)
		}
	}
}
