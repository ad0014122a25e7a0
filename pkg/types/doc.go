// Package types defines the relationship data model, the LinkService
// contract every storage backend implements, backend configuration, and the
// standard error values for linknav.
//
// Entity types are open strings rather than a closed set: independently
// loaded modules contribute their own types at runtime, and the engine only
// treats them as opaque keys.
package types
