// internal/config/secrets.go
//
// Vault reference resolution.
//
// Context
// -------
// Secret-bearing config fields may hold a reference of the form
//
//	vault:<mount>/<path>#<key>
//
// instead of a literal value.  `ResolveSecrets` walks the fields that are
// allowed to carry references (currently only the session secret) and
// replaces each reference with the value fetched from Vault.  The rest of
// the app never sees a `vault:` URI, only plain strings.
//
// Callers that use no references never need a Vault client; main only
// constructs one when `HasVaultRefs` reports true.

package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/reset/internal/vault"
)

const vaultRefPrefix = "vault:"

// secretTTL is how long a resolved value may be served from the Vault
// client's cache.  Boot reads once, so the TTL rarely matters in practice.
const secretTTL = 5 * time.Minute

// HasVaultRefs reports whether any config field carries a vault: reference.
func HasVaultRefs(c *Config) bool {
	return strings.HasPrefix(c.Session.Secret, vaultRefPrefix)
}

// ResolveSecrets replaces every vault: reference in cfg with the fetched
// secret value.  It is a no-op when cfg holds no references.
func ResolveSecrets(ctx context.Context, cfg *Config, cli *vault.Client) error {
	if !HasVaultRefs(cfg) {
		return nil
	}
	if cli == nil {
		return fmt.Errorf("config: vault reference present but no client provided")
	}

	val, err := resolveRef(ctx, cli, cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("resolve session.secret: %w", err)
	}
	cfg.Session.Secret = val
	return nil
}

// resolveRef splits "vault:<mount>/<path>#<key>" and fetches the value.
func resolveRef(ctx context.Context, cli *vault.Client, ref string) (string, error) {
	body := strings.TrimPrefix(ref, vaultRefPrefix)
	path, key, ok := strings.Cut(body, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("malformed vault reference %q", ref)
	}
	return cli.GetKV(ctx, path, key, secretTTL)
}
