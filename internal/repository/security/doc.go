// Package security implements the state stores of the security engine.
//
// DocumentRepository keeps the whole state as one document and delegates
// persistence to a Storage: MemoryStorage for tests and ephemeral runs,
// FileStorage for a JSON file on disk and RedisStorage for a shared key.
// SQLiteRepository keeps sensors and settings in relational tables.
package security
