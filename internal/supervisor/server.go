package supervisor

import (
	"fmt"
	"strconv"
)

// DefaultTool is the mocking tool invocation prefix.
const DefaultTool = "npx prism"

// DefaultFlags enable simulated error responses, permissive CORS headers and
// dynamic example generation.
var DefaultFlags = []string{"--errors", "--cors", "--dynamic"}

// Server is one mock server to launch: the tool is run as
// `<tool> mock <spec> -p <port> <flags...>`.
type Server struct {
	Name  string
	Spec  string
	Port  int
	Host  string
	Flags []string
}

// DefaultServers returns the accounts and petstore mock servers.
func DefaultServers() []Server {
	return []Server{
		{Name: "accounts", Spec: "../api/accounts.yaml", Port: 4010, Flags: append([]string(nil), DefaultFlags...)},
		{Name: "petstore", Spec: "../api/petstore.yaml", Port: 4020, Flags: append([]string(nil), DefaultFlags...)},
	}
}

// Args returns the arguments appended to the tool command.
func (s Server) Args() []string {
	args := []string{"mock", s.Spec, "-p", strconv.Itoa(s.Port)}
	if s.Host != "" {
		args = append(args, "-h", s.Host)
	}
	return append(args, s.Flags...)
}

// URL is the endpoint the server is expected to listen on.
func (s Server) URL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}
