// Package notifications delivers pipeline events to ntfy topics.
//
// Operators subscribe by role: a distribution list name (for example
// "artists" or "support") maps to an ntfy topic in config.toml, and each
// event type is routed to the list responsible for acting on it. When no
// lists are configured the service degrades to a no-op.
package notifications
