package repository

import "gorm.io/gorm"

// Migrate creates the schema and, on Postgres, the constraints that
// backstop the check-then-act invariants: no overlapping confirmed
// bookings per DJ profile, at most one live stream per booking, at most
// one succeeded payment per booking. On SQLite (local dev, tests) only
// the service-level pre-checks guard those invariants.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userModel{},
		&djProfileModel{},
		&bookingModel{},
		&streamModel{},
		&paymentModel{},
		&chatMessageModel{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		// Closed-bound range: boundary-touching bookings conflict.
		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT bookings_no_confirmed_overlap
				EXCLUDE USING gist (
					dj_profile_id WITH =,
					tstzrange(start_time, end_time, '[]') WITH &&
				) WHERE (status = 'confirmed');
		EXCEPTION WHEN duplicate_table OR duplicate_object THEN NULL; END $$`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_live_stream_per_booking
			ON streams (booking_id) WHERE status IN ('created', 'active')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_succeeded_payment_per_booking
			ON payments (booking_id) WHERE status = 'succeeded'`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
