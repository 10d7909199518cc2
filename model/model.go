package model

import (
	"gorm.io/gorm"
)

var Models = []interface{}{
	&Token{},
	&AuditEvent{},
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
