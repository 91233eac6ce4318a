package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope is a reusable query fragment for gorm's Scopes
type Scope = func(*gorm.DB) *gorm.DB

// Page selects the zero-based page of a fixed page size
func Page(page, size int) Scope {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page * size).Limit(size)
	}
}

// ForUpdate row-locks the selected rows until the transaction ends
func ForUpdate() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
}

// ForUpdateSkipLocked locks what it can and skips rows other transactions hold
func ForUpdateSkipLocked() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{
			Strength: clause.LockingStrengthUpdate,
			Options:  clause.LockingOptionsSkipLocked,
		})
	}
}
