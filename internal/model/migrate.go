package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Salon{},
		&SalonHours{},
		&Service{},
		&SalonService{},
		&Staff{},
		&StaffHours{},
		&StaffService{},
		&Appointment{},
		&ScheduleLock{},
		&Reminder{},
	)
}
