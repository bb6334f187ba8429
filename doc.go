// Package identity provides passwordless, token-based user authentication
// with optional social-identity login and group-membership authorization.
//
// The login flow is the following:
//
//  1. A user provides an email address. Manager.Login validates it, creates
//     the user record on first sight, and returns a one-time email token.
//  2. The caller mails the token-bearing URL via a MailDispatcher (LoginMailer
//     handles the %URL% substitution and registration vs login wording).
//  3. The user follows the link. Manager.IsTokenValid redeems the token
//     (one-time, 15-minute window) and creates a session / remember-me pair.
//  4. Subsequent requests are checked with Manager.IsAuthenticated (sliding
//     1-day window) or re-established with Manager.DoYouRememberMe (sliding
//     30-day window, token rotated on every use, secure transport only).
//  5. Manager.Logout tears down the session row, the session identifier, and
//     the remember-me cookie.
//
// Social login skips steps 1-3: a social.Resolver exchanges a provider bearer
// token for a verified email claim and Manager.LoginWithTrustedEmail creates
// the session directly.
//
// Group membership is answered by GroupAuthority, including redemption of
// time-windowed activation codes.
//
// All durable state lives behind RepositoryManager (Bun over a relational
// database). Per-request session and cookie access goes through an explicit
// SessionContext so nothing reads ambient process state.
package identity
