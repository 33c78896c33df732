// Package sessionkit is a client-side authentication session orchestrator.
// It unifies password, federated OAuth, and phone one-time-passcode sign-in
// behind a single [Orchestrator] that tracks who is signed in, by what
// method, and whether the account has passed the e-mail verification gate.
//
// The orchestrator does not authenticate credentials itself. A remote
// [IdentityProvider] does; sessionkit trusts it as the sole source of truth
// and treats the provider's identity-change push as the only writer of
// session state. Local calls request changes, the push confirms them.
//
// # Architecture boundaries
//
// sessionkit is the public surface. It exposes [Orchestrator], [Builder],
// [Config], the [PhoneChallengeFlow], and value types (Session, Identity,
// AuditEvent, MetricsSnapshot). Snapshot persistence lives in the session
// subpackage, concrete provider adapters under provider/, and metric
// exporters under metrics/export/.
//
// # What this package must NOT do
//
//   - Re-implement credential verification, token signing, or transport
//     security. The provider guarantees those.
//   - Retry failed provider calls. Every operation is a single best-effort
//     attempt; retry is caller policy.
//   - Mutate session status from an operation's return value. Status is a
//     pure function of the identity snapshot delivered by the push.
package sessionkit
