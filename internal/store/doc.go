// Package store persists annotation projects.
//
// Two backends implement Store: JSONStore writes one indented JSON document
// per project, and SQLiteStore keeps projects and their images in a SQLite
// database through gorm. Both round-trip every annotation type, including
// masks, and clear the project's unsaved flags on a successful Save.
package store
