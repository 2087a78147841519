package config

import (
	"time"

	"github.com/rosterbase/rosterbase/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Auth groups the authentication backend settings.
type Auth struct {
	Local LocalAuth
	LDAP  LDAP
	OIDC  OIDC
}

// LocalAuth holds settings for username/password authentication
// against the local user table.
type LocalAuth struct {
	Enabled bool
}

// LDAP holds settings for directory authentication.
type LDAP struct {
	Enabled        bool
	Host           string
	Port           int
	UseSSL         bool
	UseTLS         bool
	SkipVerify     bool
	BindDN         string
	BindPassword   string
	BaseDN         string
	UserFilter     string
	UsernameAttr   string
	EmailAttr      string
	FirstNameAttr  string
	LastNameAttr   string
	EmployeeNoAttr string
	Timeout        int
}

// OIDC holds settings for authentication against a hosted identity provider.
type OIDC struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}
