package providers

import (
	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/logger"
	"github.com/readlist/readlist-server/internal/service"
	"github.com/readlist/readlist-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[auth.TokenIssuer](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, v, log.WithComponent("auth").Logger), nil
}

// ProvideBookService provides the saved-books service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, v, log.WithComponent("books").Logger), nil
}
