// Package httpidp implements sessionkit.IdentityProvider over an identity
// toolkit style REST API: account endpoints keyed by an API key, bearer-less
// JSON POSTs, and identity state carried in a signed ID token whose claims
// describe the authenticated principal.
//
// The adapter owns the provider-side view of "who is signed in": every
// auth-changing call updates its cached identity and notifies registered
// identity-change listeners, which is how the orchestrator's push arrives.
// Token signatures are validated by the provider that issued them; this
// client only decodes claims.
package httpidp
