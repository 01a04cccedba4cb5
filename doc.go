// Package auth implements the credential and session lifecycle behind
// the connection service: registration, email verification, login,
// token refresh, password recovery, and federated identity merge.
//
// Account lifecycle:
//   - Registration creates a disabled account gated by a one time
//     verification token. Accounts cannot authenticate until the token
//     is redeemed, and tokens are consumed on first use.
//   - Login compares bcrypt hashes through an IdentityProvider and
//     mints a short lived access token plus a longer lived refresh
//     token. Repeated failures trip a per account cooldown.
//   - Password recovery issues a short lived reset token per account,
//     superseding any earlier token, delivered out of band via Mailer.
//
// Federated identities:
//   - FederatedMerger reconciles provider assertions with local
//     accounts so one email resolves to one account regardless of how
//     the user arrives. AssertionVerifier checks provider ID tokens
//     against their published JWKS.
//
// Commands follow the Execute(ctx, message) shape and run their writes
// inside a single transaction via RepositoryManager.RunInTx.
package auth
