// Package identity derives the stable key a turn is sessioned under.
//
// The default derivation is deliberately weak: visitors behind the same
// network origin can collide, and the client hint is forgeable. It stays
// behind the Resolver interface so a stronger scheme can replace it
// without touching the dialogue engine.
package identity

import (
	"net"
	"strings"
)

// Request carries the per-turn hints a resolver may use.
type Request struct {
	SessionToken string
	RemoteAddr   string
	ClientHint   string
}

// Resolver maps an inbound turn to a session key.
type Resolver interface {
	Key(req Request) string
}

const defaultHintLimit = 16

// TokenFirstResolver prefers an explicit session token and falls back to
// the network origin plus a bounded prefix of the client hint.
type TokenFirstResolver struct {
	// HintLimit bounds how much of the client hint enters the key.
	// Zero means defaultHintLimit.
	HintLimit int
}

func (r TokenFirstResolver) Key(req Request) string {
	if tok := strings.TrimSpace(req.SessionToken); tok != "" {
		return "token:" + tok
	}

	host := req.RemoteAddr
	if h, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		host = h
	}

	limit := r.HintLimit
	if limit <= 0 {
		limit = defaultHintLimit
	}
	hint := strings.TrimSpace(req.ClientHint)
	if len(hint) > limit {
		hint = hint[:limit]
	}

	return "origin:" + host + ":" + hint
}
