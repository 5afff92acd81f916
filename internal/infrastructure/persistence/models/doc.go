// Package models holds the GORM persistence models of the fee ledger.
//
// Domain entities in internal/domain/finance carry no ORM tags; each model
// here maps one table and converts to and from its entity with ToDomain and
// a *ModelFromDomain constructor. FeeLedgerModels lists every table for
// AutoMigrate in sqlite deployments and tests.
package models
