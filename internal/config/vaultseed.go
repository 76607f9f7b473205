package config

import (
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
)

// LoadDigestSeed optionally reads a signing secret for the dump-digest
// signer (pkg/tokstore.DigestSigner) from Vault's KV engine, so repeated
// restarts sign with the same key instead of a fresh random one each time.
// It is entirely optional: when addr is empty the server falls back to a
// process-local random secret and this function is never called.
func LoadDigestSeed(addr, token, secretPath, field string) ([]byte, error) {
	cfg := vaultapi.DefaultConfig()
	cfg.Address = addr

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: create vault client: %w", err)
	}
	client.SetToken(token)

	secret, err := client.Logical().Read(secretPath)
	if err != nil {
		return nil, fmt.Errorf("config: read vault secret %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("config: vault secret %s not found", secretPath)
	}

	raw, ok := secret.Data[field].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("config: vault secret %s missing field %q", secretPath, field)
	}
	return []byte(raw), nil
}
