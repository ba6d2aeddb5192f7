// Package identity derives the session identity from the opaque bearer
// credential handed over by the auth collaborator.
package identity

import (
	"log"

	"weddinghub/internal/common"
)

// Resolver turns a credential string into an Identity. It is a pure
// derivation: same credential, same result, and it never returns an error to
// the caller - a credential that does not decode simply yields no identity.
type Resolver struct {
	secret []byte
}

func NewResolver(secret []byte) *Resolver {
	return &Resolver{secret: secret}
}

func (r *Resolver) Resolve(credential string) *common.Identity {
	if credential == "" {
		return nil
	}

	claims, err := common.ParseToken(r.secret, credential)
	if err != nil {
		log.Printf("identity: credential did not decode: %v", err)
		return nil
	}

	role := common.Role(claims.Role)
	if !role.Valid() {
		log.Printf("identity: unknown role %q in credential", claims.Role)
		return nil
	}

	return &common.Identity{
		UserID: claims.UserID,
		Role:   role,
	}
}
