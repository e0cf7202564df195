package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	tests := []struct {
		httpProxy  string
		httpsProxy string
		noProxy    string
		target     string
		want       string
		desc       string
	}{
		{httpProxy: "http://proxy:8080", target: "http://api.example.com/v1", want: "http://proxy:8080", desc: "http proxy for http target"},
		{httpProxy: "http://proxy:8080", target: "https://api.example.com/v1", want: "http://proxy:8080", desc: "http proxy covers https target"},
		{httpProxy: "http://plain:8080", httpsProxy: "http://secure:8443", target: "https://api.example.com/v1", want: "http://secure:8443", desc: "https proxy preferred for https target"},
		{httpProxy: "http://proxy:8080", noProxy: "internal.example.com", target: "http://internal.example.com/api", want: "", desc: "no_proxy bypass"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			fn := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			req, err := http.NewRequest(http.MethodGet, tt.target, nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			got, err := fn(req)
			if err != nil {
				t.Fatalf("proxy func: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected direct connection, got %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}
