// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities so the domain layer stays free
// of ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models hold all GORM annotations and table mappings
// 3. ToDomain/FromDomain mappers convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - shareholder.go: ShareholderModel and CapacityPoolModel
//
// The SQL migrations under migrations/ are the schema of record; the gorm
// tags mirror them so AutoMigrate produces an equivalent schema for tests.
package models
