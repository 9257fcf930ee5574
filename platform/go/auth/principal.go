package auth

import "context"

// Claims consulted, in order, for a principal's display name.
const (
	ClaimPreferredUsername = "preferred_username"
	ClaimName              = "name"
)

// Principal is the identity of an authenticated caller, built fresh for each request.
type Principal struct {
	// Subject is the stable unique identifier of the caller.
	Subject string
	// DisplayName is the best human-readable name available.
	DisplayName string
	// Authenticated is always true for a resolved Principal.
	Authenticated bool
}

// ResolvePrincipal turns an authentication result into a Principal. It returns false when authn
// is nil or not authenticated. The display name is preferred_username, then name, then the
// canonical name of the token.
func ResolvePrincipal(authn *Authentication) (Principal, bool) {
	if authn == nil || !authn.Authenticated {
		return Principal{}, false
	}

	display := authn.Name
	if v, ok := stringAttribute(authn.Attributes, ClaimPreferredUsername); ok {
		display = v
	} else if v, ok := stringAttribute(authn.Attributes, ClaimName); ok {
		display = v
	}

	return Principal{
		Subject:       authn.Name,
		DisplayName:   display,
		Authenticated: true,
	}, true
}

// PrincipalFromContext resolves the principal of the authentication bound to ctx.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	authn, ok := AuthenticationFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	return ResolvePrincipal(authn)
}

func stringAttribute(attributes map[string]interface{}, key string) (string, bool) {
	v, ok := attributes[key].(string)
	return v, ok && v != ""
}
