// Package coverage reads ink-coverage documents emitted by prepress
// equipment.
//
// ParseFile turns one XML document into a Document: job and item identifiers
// from the file name grammar, the source artwork path, the ordered ink
// channels, and the optional disclaimer, proofer, and cancellation metadata.
// The classifier helpers in inks.go resolve canonical ink names and decide
// which channels are printing inks. Nothing here touches storage or business
// rules; structural problems surface as services.ErrMalformedDocument.
package coverage
