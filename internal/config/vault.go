package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
)

// resolveVault reads a Vault secret reference.
// Format: secret/data/path#key
func (s SecretsConfig) resolveVault(ctx context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok {
		return "", fmt.Errorf("invalid Vault reference %q: expected format path#key", ref)
	}

	if s.VaultAddr == "" {
		return "", fmt.Errorf("vault address not configured (secrets.vault_addr or VAULT_ADDR)")
	}
	if s.VaultToken == "" {
		return "", fmt.Errorf("VAULT_TOKEN environment variable not set")
	}

	cfg := api.DefaultConfig()
	cfg.Address = s.VaultAddr

	client, err := api.NewClient(cfg)
	if err != nil {
		return "", fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(s.VaultToken)

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("reading Vault secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at %s", path)
	}

	// KV v2 nests the payload under "data"
	data := secret.Data
	if inner, ok := data["data"].(map[string]any); ok {
		data = inner
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in Vault secret at %s", key, path)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("vault secret value for key %q is not a string", key)
	}
	return str, nil
}
