package models

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&Franchise{},
		&Store{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&AuthSession{},
	}
}
