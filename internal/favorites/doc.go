// Package favorites stores the meals a user saved in a local SQLite
// database.
//
// The table is keyed by meal ID. Upsert replaces a record in place, so the
// list keeps the order in which meals were first saved. Every successful
// mutation publishes the whole list to an observable slot; observers obtained
// from Observe see the current list on subscribe and each later change.
//
// Mutations are serialized under one store-wide lock. The data volume is a
// handful of rows, so table-level locking is all that is needed.
package favorites
