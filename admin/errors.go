package admin

import "errors"

var (
	// ErrUnknownTenant indicates a tenant missing from the settings store.
	ErrUnknownTenant = errors.New("admin: unknown tenant")

	// ErrNilStore indicates a Service built without a settings store.
	ErrNilStore = errors.New("admin: settings store is nil")

	// ErrTokensDisabled indicates a token request on a handler without a
	// token service.
	ErrTokensDisabled = errors.New("admin: token issuance not configured")
)
