package domain

import (
	"errors"
	"fmt"
)

const MaxAccountLen = 64

var (
	ErrAccountEmpty   = errors.New("account empty")
	ErrAccountTooLong = errors.New("account too long")
)

// Account is the SIP identity this client registers as. The gateway
// does the actual SIP registration; we only carry the pieces of the
// register request.
type Account struct {
	Username    string
	DisplayName string
	Secret      string
	Proxy       string
	ProxyPort   int
}

// NewAccount builds a registration identity for the given extension
// against a proxy. The demo accounts use the extension as secret too.
func NewAccount(extension, proxy string, proxyPort int) (*Account, error) {
	if len(extension) == 0 {
		return nil, ErrAccountEmpty
	}
	if len(extension) > MaxAccountLen {
		return nil, ErrAccountTooLong
	}
	return &Account{
		Username:    extension,
		DisplayName: "Test " + extension,
		Secret:      extension,
		Proxy:       proxy,
		ProxyPort:   proxyPort,
	}, nil
}

// URI is the full SIP address of record, e.g. sip:1001@proxy.
func (a *Account) URI() string {
	return fmt.Sprintf("sip:%s@%s", a.Username, a.Proxy)
}

// ProxyURI is the outbound proxy address with port.
func (a *Account) ProxyURI() string {
	return fmt.Sprintf("sip:%s:%d", a.Proxy, a.ProxyPort)
}

// DialURI turns a bare extension into a callable SIP URI on the same
// proxy. An already-qualified sip: URI passes through untouched.
func (a *Account) DialURI(destination string) string {
	if len(destination) >= 4 && destination[:4] == "sip:" {
		return destination
	}
	return fmt.Sprintf("sip:%s@%s:%d", destination, a.Proxy, a.ProxyPort)
}
