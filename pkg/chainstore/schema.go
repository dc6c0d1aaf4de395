package chainstore

import (
	"database/sql"
	"fmt"
)

const (
	// EndSymbolID is the reserved database id for the termination marker,
	// matching the chain package's id 0.
	EndSymbolID = 0
	// EndSymbolText is the reserved text for the termination marker.
	EndSymbolText = "<end>"
)

// SetupSchema initializes the tables and the reserved termination symbol in
// the provided database. It should be called once before any other
// operation; it is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaSymbols = `
CREATE TABLE IF NOT EXISTS chain_symbols (
    symbol_id INTEGER PRIMARY KEY,
    symbol_text TEXT NOT NULL UNIQUE
);
`
		schemaStates = `
CREATE TABLE IF NOT EXISTS chain_states (
    state_id INTEGER PRIMARY KEY,
    state_key TEXT NOT NULL UNIQUE
);
`
		schemaModels = `
CREATE TABLE IF NOT EXISTS chain_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS chain_transitions (
    model_id INTEGER NOT NULL,
    state_id INTEGER NOT NULL,
    next_symbol_id INTEGER NOT NULL,
    weight INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, state_id, next_symbol_id)
);
`
	)

	endSymbol := fmt.Sprintf("INSERT OR IGNORE INTO chain_symbols (symbol_id, symbol_text) VALUES (%d, '%s');", EndSymbolID, EndSymbolText)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range []string{schemaSymbols, schemaStates, schemaModels, schemaTransitions, endSymbol} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
