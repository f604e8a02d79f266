// Package types defines the storage interface, persisted record types,
// configuration and standard errors shared by the wardrobe packages and its
// storage backends.
package types
