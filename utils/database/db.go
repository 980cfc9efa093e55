package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Init opens the moderation database and ensures all tables exist.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS banned_phrases (
	        id INTEGER PRIMARY KEY AUTOINCREMENT,
	        guild_id TEXT NOT NULL,
	        phrase TEXT NOT NULL,
	        mode TEXT NOT NULL DEFAULT 'exact',
	        kind TEXT NOT NULL DEFAULT 'none',
	        role_id TEXT NOT NULL DEFAULT '',
	        threshold INTEGER NOT NULL DEFAULT 1,
	        duration INTEGER NOT NULL DEFAULT 0
	    );`,
		`CREATE TABLE IF NOT EXISTS spam_rules (
	        id INTEGER PRIMARY KEY AUTOINCREMENT,
	        guild_id TEXT NOT NULL,
	        category TEXT NOT NULL,
	        window INTEGER NOT NULL,
	        threshold INTEGER NOT NULL,
	        kind TEXT NOT NULL DEFAULT 'none',
	        role_id TEXT NOT NULL DEFAULT '',
	        duration INTEGER NOT NULL DEFAULT 0,
	        enabled INTEGER NOT NULL DEFAULT 1
	    );`,
		`CREATE TABLE IF NOT EXISTS raid_rules (
	        id INTEGER PRIMARY KEY AUTOINCREMENT,
	        guild_id TEXT NOT NULL,
	        category TEXT NOT NULL,
	        window INTEGER NOT NULL,
	        threshold INTEGER NOT NULL,
	        kind TEXT NOT NULL DEFAULT 'none',
	        role_id TEXT NOT NULL DEFAULT '',
	        duration INTEGER NOT NULL DEFAULT 0,
	        enabled INTEGER NOT NULL DEFAULT 1
	    );`,
		`CREATE TABLE IF NOT EXISTS timed_punishments (
	        guild_id TEXT NOT NULL,
	        user_id TEXT NOT NULL,
	        kind TEXT NOT NULL,
	        role_id TEXT NOT NULL DEFAULT '',
	        expires_at DATETIME NOT NULL,
	        PRIMARY KEY (guild_id, user_id, kind)
	    );`,
		`CREATE TABLE IF NOT EXISTS role_grants (
	        guild_id TEXT NOT NULL,
	        user_id TEXT NOT NULL,
	        role_id TEXT NOT NULL,
	        PRIMARY KEY (guild_id, user_id, role_id)
	    );`,
		`CREATE TABLE IF NOT EXISTS punishment_log (
	        id INTEGER PRIMARY KEY AUTOINCREMENT,
	        guild_id TEXT NOT NULL,
	        user_id TEXT NOT NULL,
	        kind TEXT NOT NULL,
	        rule_key TEXT NOT NULL DEFAULT '',
	        timestamp INTEGER NOT NULL
	    );`,
		`CREATE TABLE IF NOT EXISTS stats_messages (
	        channel_id TEXT PRIMARY KEY,
	        message_id TEXT NOT NULL
	    );`,
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return db, nil
}

// Store implements the engine's store interfaces over the sqlite database.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}
