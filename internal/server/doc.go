// Package server provides HTTP routing, middleware, and the OAuth callback handler used by `spotx login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers so the first one added is outermost. [LogRequests] is the only middleware in use.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] receives the authorization-code redirect on [CallbackPath]. It checks the state parameter (CSRF protection)
// and sends the code through a channel to the login flow, which performs the token exchange.
//
// It only delivers one result. Requests without a code get the [WaitingPage] placeholder.
//
// # Lifetime
//
// The listener lives only for the duration of one login attempt: internal/auth starts it on a loopback port,
// waits for a result or a timeout, and shuts it down on every exit path so the port is free for the next attempt.
package server
