// Package records persists teacher-facing domain data: the profile,
// academic and research records, class rosters, attendance, calendar
// events, tasks, syllabus documents, and generated artifacts. It is a
// second SQLite database next to the generation job queue.
package records
