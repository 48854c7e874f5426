package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables. The variable name
// is the prefix followed by the secret name upper-cased with hyphens turned
// into underscores: "plex-token" becomes CURATOR_SECRET_PLEX_TOKEN.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

// GetSecret implements Provider. An empty variable counts as missing.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	v := p.Variable(name)
	value, ok := os.LookupEnv(v)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, name, v)
	}
	return value, nil
}

// Name implements Provider.
func (p *EnvProvider) Name() string {
	return "env"
}

// Variable returns the environment variable holding name.
func (p *EnvProvider) Variable(name string) string {
	return p.prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
