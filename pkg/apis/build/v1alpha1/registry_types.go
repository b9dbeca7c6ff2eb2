package v1alpha1

import "strings"

// PasswordDecryptor turns an encrypted password from the settings into plain text.
// It is injected by the caller because the encryption scheme is tool specific.
type PasswordDecryptor func(ciphertext string) (string, error)

// RegistryServerConfiguration holds credentials for one registry server.
type RegistryServerConfiguration struct {
	// ID is the server id, usually the registry host.
	ID string `json:"id"`
	// Username is the registry user.
	Username string `json:"username,omitzero"`
	// Password is the registry password, possibly encrypted.
	Password string `json:"password,omitzero"`
	// Configuration carries extra settings such as "email" or "auth".
	Configuration map[string]string `json:"configuration,omitempty"`
}

// RegistryConfig is the registry configuration used for a pull or a push.
type RegistryConfig struct {
	// Registry is the default registry host.
	Registry string `json:"registry,omitzero"`
	// Settings holds per-server credentials.
	Settings []RegistryServerConfiguration `json:"settings,omitempty"`
	// SkipExtendedAuth disables credential lookup beyond Settings.
	SkipExtendedAuth bool `json:"skipExtendedAuth,omitzero"`
	// AuthConfig holds explicit credentials (username, password, email, auth) keyed by
	// field name, optionally nested under "push" or "pull".
	AuthConfig map[string]string `json:"authConfig,omitempty"`
	// Decryptor decrypts passwords found in Settings. Nil means passwords are plain text.
	Decryptor PasswordDecryptor `json:"-"`
}

// DecryptPassword runs the configured decryptor, returning the input unchanged when none is set.
func (r *RegistryConfig) DecryptPassword(password string) (string, error) {
	if r == nil || r.Decryptor == nil || password == "" {
		return password, nil
	}

	return r.Decryptor(password)
}

// AuthValue returns an AuthConfig entry, preferring the mode specific key
// ("push.username") over the generic one ("username").
func (r *RegistryConfig) AuthValue(isPush bool, key string) string {
	if r == nil || r.AuthConfig == nil {
		return ""
	}

	mode := "pull"
	if isPush {
		mode = "push"
	}

	if value := r.AuthConfig[mode+"."+key]; value != "" {
		return value
	}

	return r.AuthConfig[key]
}

// RegistryOrDefault returns the registry, trimmed of any scheme prefix.
func (r *RegistryConfig) RegistryOrDefault() string {
	if r == nil {
		return ""
	}

	registry := strings.TrimPrefix(r.Registry, "https://")

	return strings.TrimSuffix(strings.TrimPrefix(registry, "http://"), "/")
}
