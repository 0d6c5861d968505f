package supervisor

import (
	"reflect"
	"testing"
)

func TestServerArgs(t *testing.T) {
	srv := DefaultServers()[0]
	want := []string{"mock", "../api/accounts.yaml", "-p", "4010", "--errors", "--cors", "--dynamic"}
	if got := srv.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}

	srv = Server{Name: "x", Spec: "x.yaml", Port: 9000, Host: "127.0.0.1"}
	want = []string{"mock", "x.yaml", "-p", "9000", "-h", "127.0.0.1"}
	if got := srv.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"", "http://localhost:4020"},
		{"0.0.0.0", "http://localhost:4020"},
		{"127.0.0.1", "http://127.0.0.1:4020"},
	}
	for _, tt := range tests {
		s := Server{Name: "petstore", Port: 4020, Host: tt.host}
		if got := s.URL(); got != tt.want {
			t.Fatalf("URL() with host %q = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestDefaultServersAreIndependentCopies(t *testing.T) {
	a := DefaultServers()
	a[0].Flags[0] = "--changed"
	b := DefaultServers()
	if b[0].Flags[0] != "--errors" || DefaultFlags[0] != "--errors" {
		t.Fatalf("default flags were mutated")
	}
}
