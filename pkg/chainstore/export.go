package chainstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/aveline-dev/chaingen/pkg/chain"
)

// ExportedModel is the JSON representation of a stored model: a name
// paired with the chain package's snapshot form. Symbol ids in the
// snapshot are self-contained, so an export can be imported into any
// database regardless of how its shared tables are numbered.
type ExportedModel struct {
	Name  string                 `json:"name"`
	Model chain.Snapshot[string] `json:"model"`
}

// Export serializes the named model as indented JSON to the provided
// writer. This is useful for backups or for transferring models between
// databases.
func (s *Store) Export(ctx context.Context, name string, w io.Writer) error {
	c, err := s.Load(ctx, name, nil)
	if err != nil {
		return err
	}

	exported := ExportedModel{Name: name, Model: c.Snapshot()}

	s.logger.InfoContext(ctx, "Model exported",
		slog.String("model_name", name),
		slog.Int("symbols", len(exported.Model.Symbols)),
		slog.Int("states", len(exported.Model.States)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON model representation from r and merges it into the
// database. If the model name already exists with the same order, the
// imported weights are added to the existing ones; a differing order is an
// error. If the model does not exist, it is created. The entire operation
// is transactional and re-maps symbol and state ids.
func (s *Store) Import(ctx context.Context, r io.Reader) error {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return fmt.Errorf("failed to decode json model: %w", err)
	}
	if imported.Name == "" {
		return fmt.Errorf("imported model has no name")
	}

	// Validate before touching the database; Restore checks id ranges,
	// window lengths and weights.
	if _, err := chain.Restore(imported.Model, nil); err != nil {
		return fmt.Errorf("imported model is inconsistent: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	modelID, err := s.ensureModel(ctx, tx, imported.Name, imported.Model.Order, false)
	if err != nil {
		return err
	}

	symbolIDs, err := s.mapSymbols(ctx, tx, imported.Model.Symbols)
	if err != nil {
		return err
	}

	// Add to the existing weight when the link is already present, so
	// importing is cumulative like training.
	stmtUpsertTransition, err := tx.PrepareContext(ctx, `
		INSERT INTO chain_transitions (model_id, state_id, next_symbol_id, weight) VALUES (?, ?, ?, ?)
		ON CONFLICT(model_id, state_id, next_symbol_id) DO UPDATE SET weight = weight + excluded.weight;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition upsert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtUpsertTransition)

	getOrInsertState := tx.StmtContext(ctx, s.stmtGetOrInsertState)
	stateCache := make(map[string]int64)

	var keyBuf []byte
	for _, st := range imported.Model.States {
		keyBuf = keyBuf[:0]
		for j, id := range st.Window {
			if j > 0 {
				keyBuf = append(keyBuf, ' ')
			}
			keyBuf = strconv.AppendInt(keyBuf, symbolIDs[id], 10)
		}
		stateKey := string(keyBuf)

		stateID, ok := stateCache[stateKey]
		if !ok {
			if err = getOrInsertState.QueryRowContext(ctx, stateKey).Scan(&stateID); err != nil {
				return fmt.Errorf("failed to get or insert state '%s': %w", stateKey, err)
			}
			stateCache[stateKey] = stateID
		}

		for _, tr := range st.Transitions {
			if _, err = stmtUpsertTransition.ExecContext(ctx, modelID, stateID, symbolIDs[tr.Next], tr.Weight); err != nil {
				return fmt.Errorf("failed to upsert transition (%d -> %d): %w", stateID, symbolIDs[tr.Next], err)
			}
		}
	}

	s.logger.InfoContext(ctx, "Model imported",
		slog.String("model_name", imported.Name),
		slog.Int64("target_model_id", modelID),
		slog.Int("symbols_merged", len(imported.Model.Symbols)),
		slog.Int("states_merged", len(imported.Model.States)),
	)

	return tx.Commit()
}
