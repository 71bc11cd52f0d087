package domain

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&Investment{},
		&Wallet{},
		&Bonus{},
		&LedgerEntry{},
		&Payment{},
		&Contact{},
		&Complaint{},
		&Report{},
		&Event{},
		&EventRegistration{},
		&Listing{},
		&LandSubmission{},
	}
}
