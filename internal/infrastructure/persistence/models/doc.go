// Package models holds the GORM persistence models. Domain types stay free of
// ORM tags; each model converts to and from its domain type.
//
// Every table is keyed by a deterministic business id so batch writes are
// idempotent upserts.
package models
