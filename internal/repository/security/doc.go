// Package security implements persistence for the SafeHome security core.
//
// It declares the narrow repository interfaces the security manager consumes
// (sensors, zones, modes and the intrusion log) and ships two implementations:
// MemoryRepository, seeded with the default floor plan, and SQLiteRepository,
// which keeps the same data in an SQLite file.
package security
