package providers

import (
	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/config"
	"github.com/readlist/readlist-server/internal/logger"
)

// AuthKey wraps the token signing key bytes.
type AuthKey []byte

// ProvideAuthKey uses AUTH_TOKEN_KEY when set, otherwise loads or generates
// the key in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if len(cfg.Auth.TokenKey) > 0 {
		log.Info("Authentication key taken from environment")
		return AuthKey(cfg.Auth.TokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.Auth.TokenKey = key

	log.Info("Authentication key loaded", "token_duration", cfg.Auth.TokenDuration)

	return AuthKey(key), nil
}

// ProvideTokenIssuer provides the session token issuer for the configured format.
func ProvideTokenIssuer(i do.Injector) (auth.TokenIssuer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewIssuer(cfg.Auth.TokenFormat, key, cfg.Auth.TokenDuration)
}
