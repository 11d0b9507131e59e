// Package auth provides the identity, session, and authorization core for a
// marketplace backend: provider payload resolution, account lifecycle rules,
// token issuance with single-use refresh rotation, and stateless session
// validation.
//
// Identity resolution:
//   - ResolveIdentity maps raw provider payloads (google, facebook, naver,
//     kakao, apple, local) onto a CanonicalIdentity keyed by (provider,
//     external id). Unknown providers and malformed payloads fail before any
//     storage is touched.
//
// Account lifecycle:
//   - Principals carry a UserStatus (normal, dormant, withdrawn) and sellers
//     additionally a SellerStatus (pending, approved, rejected). The lifecycle
//     machines in NewUserLifecycle and NewSellerLifecycle centralize the
//     transition graphs; approved, rejected, and withdrawn are terminal.
//   - Rejections require a reason from the RejectionReason taxonomy and are
//     recorded alongside the status flip.
//
// Credentials:
//   - Issuer mints an HS256 access token plus an opaque refresh token. A
//     principal holds at most one live refresh token; rotation consumes the
//     old value atomically, so concurrent refreshes produce exactly one
//     winner. Every rotation re-runs the authorization gate against current
//     account state.
//   - Access token validation is fully stateless and never touches storage.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, Issuer,
//     and the lifecycle machines for login, rotation, and status change
//     events. Sinks run best-effort (errors are logged) so you can forward to
//     a database or queue without blocking authentication. The activitymap
//     subpackage normalizes events for downstream pipelines.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may
//     enrich the metadata extension field while protected claims (sub, iss,
//     aud, exp, role, provider) remain immutable.
package auth
