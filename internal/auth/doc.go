// Package auth implements Spotify authorization for a single local user.
//
// A [Coordinator] runs the authorization code flow: it binds a loopback callback listener,
// sends the user to the consent page and exchanges the returned code for tokens. Tokens are
// persisted by a [Store] and kept fresh by a [Refresher]. API clients obtain bearer tokens
// through a [Session].
package auth
