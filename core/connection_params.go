package core

import (
	"encoding/json"
	"net"
	nurl "net/url"

	"github.com/google/uuid"
)

type ConnectionID string

// ConnectionParams describe how to reach a backend. Either URL is set, or
// the URL is assembled from the individual fields by the adapter.
type ConnectionParams struct {
	ID   ConnectionID `mapstructure:"id"`
	Name string       `mapstructure:"name"`
	Type string       `mapstructure:"type"`
	URL  string       `mapstructure:"url"`

	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
}

// Expand returns a copy of the original parameters with expanded fields.
// A missing ID is replaced with a random one.
func (p *ConnectionParams) Expand() *ConnectionParams {
	expanded := &ConnectionParams{
		ID:   ConnectionID(expandOrDefault(string(p.ID))),
		Name: expandOrDefault(p.Name),
		Type: expandOrDefault(p.Type),
		URL:  expandOrDefault(p.URL),

		User:     expandOrDefault(p.User),
		Password: expandOrDefault(p.Password),
		Host:     expandOrDefault(p.Host),
		Port:     expandOrDefault(p.Port),
		Database: expandOrDefault(p.Database),
	}

	if expanded.ID == "" {
		expanded.ID = ConnectionID(uuid.New().String())
	}

	return expanded
}

// HostPort joins host and the optional port.
func (p *ConnectionParams) HostPort() string {
	if p.Port == "" {
		return p.Host
	}
	return net.JoinHostPort(p.Host, p.Port)
}

// URLWithScheme returns URL if it's set, otherwise it builds
// <scheme>://user:password@host:port/database. Password and port are optional.
func (p *ConnectionParams) URLWithScheme(scheme string) string {
	if p.URL != "" {
		return p.URL
	}

	u := &nurl.URL{
		Scheme: scheme,
		Host:   p.HostPort(),
	}
	switch {
	case p.User != "" && p.Password != "":
		u.User = nurl.UserPassword(p.User, p.Password)
	case p.User != "":
		u.User = nurl.User(p.User)
	}
	if p.Database != "" {
		u.Path = "/" + p.Database
	}

	return u.String()
}

// MarshalJSON never exposes the password.
func (p *ConnectionParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Host     string `json:"host,omitempty"`
		Port     string `json:"port,omitempty"`
		Database string `json:"database,omitempty"`
		User     string `json:"user,omitempty"`
	}{
		ID:       string(p.ID),
		Name:     p.Name,
		Type:     p.Type,
		Host:     p.Host,
		Port:     p.Port,
		Database: p.Database,
		User:     p.User,
	})
}
