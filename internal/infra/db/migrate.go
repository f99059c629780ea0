package db

import "database/sql"

// MigrateUp creates the hub's schema: topics the hub polls and fans out
// notifications for, subscribers and listeners registered against them, and
// the join tables tracking which callback is linked to which topic.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS topics (
    url              TEXT PRIMARY KEY,
    content          BYTEA,
    content_type     TEXT,
    fetched_at       TIMESTAMPTZ,
    last_pinged_at   TIMESTAMPTZ,
    changed          BOOLEAN NOT NULL DEFAULT FALSE,
    failed           BOOLEAN NOT NULL DEFAULT FALSE,
    subscriber_count INTEGER NOT NULL DEFAULT 0
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS subscribers (
    callback_url TEXT PRIMARY KEY,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS listeners (
    callback_url TEXT PRIMARY KEY
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS topic_subscribers (
    topic_url    TEXT NOT NULL REFERENCES topics(url) ON DELETE CASCADE,
    callback_url TEXT NOT NULL REFERENCES subscribers(callback_url) ON DELETE CASCADE,
    PRIMARY KEY (topic_url, callback_url)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS listener_topics (
    callback_url TEXT NOT NULL REFERENCES listeners(callback_url) ON DELETE CASCADE,
    topic_url    TEXT NOT NULL REFERENCES topics(url) ON DELETE CASCADE,
    PRIMARY KEY (callback_url, topic_url)
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_topics_failed ON topics(failed) WHERE failed = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_topic_subscribers_callback ON topic_subscribers(callback_url)`,
		`CREATE INDEX IF NOT EXISTS idx_listener_topics_topic ON listener_topics(topic_url)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the hub's schema. The join tables cascade from their
// parent tables' drops, listed explicitly for clarity.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS listener_topics CASCADE`,
		`DROP TABLE IF EXISTS topic_subscribers CASCADE`,
		`DROP TABLE IF EXISTS listeners CASCADE`,
		`DROP TABLE IF EXISTS subscribers CASCADE`,
		`DROP TABLE IF EXISTS topics CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
