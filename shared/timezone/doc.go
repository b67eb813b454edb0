// Package timezone keeps every booking date and clock time in the restaurant's
// own timezone, read once from APP_TIMEZONE when the package loads.
//
//	today := timezone.Today()                 // "2026-10-17"
//	day, err := timezone.ParseDate("2026-10-18")
//	shown := timezone.Format(createdAt, time.RFC3339)
//
// Guests talk in local wall clock time, so a booking at "19:00" on a date is
// always 19:00 at the restaurant regardless of where the server runs.
package timezone
