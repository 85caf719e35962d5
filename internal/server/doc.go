// Package server provides HTTP routing, middleware, and OAuth handling for the CLI and the JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally, so registered routes may use the
// stdlib method and wildcard pattern syntax.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the user runs the auth command, a temporary HTTP server starts on the configured redirect address,
// handles the callback, and shuts down after receiving the OAuth token.
//
// # Library API
//
// [LibraryHandler] exposes the synced library over JSON: sync runs, video and playlist listings,
// tag management, annotations and snapshot transfers.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
