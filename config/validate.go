package config

import (
	"fmt"
	"strings"
)

var (
	backends          = []string{"sqlite", "postgres", "redis", "memory"}
	credentialSchemes = []string{"plaintext", "bcrypt"}
)

func (c *Config) validate() error {
	if !contains(backends, c.Backend) {
		return fmt.Errorf("unknown BACKEND %q (want one of %s)", c.Backend, strings.Join(backends, ", "))
	}
	if c.Backend == "postgres" && c.PostgresURL == "" {
		return fmt.Errorf("BACKEND=postgres requires DATABASE_URL")
	}
	if !contains(credentialSchemes, c.CredentialScheme) {
		return fmt.Errorf("unknown CREDENTIAL_SCHEME %q (want one of %s)", c.CredentialScheme, strings.Join(credentialSchemes, ", "))
	}
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	if c.AdminEmail == "" {
		c.AdminEmail = DefaultAdminEmail
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
