// Package access holds the owner-or-read-only rules that gate mutations.
package access

import (
	"context"
	"errors"
)

var ErrForbidden = errors.New("you do not have permission to perform this action")

type Action int

const (
	Read Action = iota
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Principal is the authenticated requester.
type Principal struct {
	UserID    int64
	Username  string
	Superuser bool
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by the authentication middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)

	return p, ok
}

// CheckArticle allows reads to anyone, updates to the owner and deletes to the
// owner or a superuser.
func CheckArticle(p Principal, ownerID int64, a Action) error {
	switch a {
	case Read:
		return nil
	case Update:
		if p.UserID == ownerID {
			return nil
		}
	case Delete:
		if p.UserID == ownerID || p.Superuser {
			return nil
		}
	}

	return ErrForbidden
}

// CheckComment allows reads to anyone and mutations to the comment's author only.
func CheckComment(p Principal, authorID int64, a Action) error {
	if a == Read || p.UserID == authorID {
		return nil
	}

	return ErrForbidden
}
