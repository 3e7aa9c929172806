package models

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the postgres database and migrates the tables this service
// owns. The handle is returned to the caller so stores can be constructed
// explicitly instead of reading a package global.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OTP{}, &Entitlement{}); err != nil {
		return nil, err
	}
	return db, nil
}
