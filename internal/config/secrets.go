package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
)

var secretPattern = regexp.MustCompile(`^\$\{(ENV|VAULT|AWS_SM):([^}]+)\}$`)

// IsSecretRef reports whether val is a whole ${PROVIDER:ref} reference.
func IsSecretRef(val string) bool {
	return secretPattern.MatchString(val)
}

// Resolve returns val, or the secret it references when val has the form
// ${ENV:NAME}, ${VAULT:path#key} or ${AWS_SM:secret-name}.
func (s SecretsConfig) Resolve(ctx context.Context, val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return s.resolveVault(ctx, ref)
	case "AWS_SM":
		return s.resolveAWSSecretsManager(ctx, ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}
