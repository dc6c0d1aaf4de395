package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/aveline-dev/chaingen/pkg/chain"
)

// Save writes a chain's model data under the given name, replacing any
// previously stored transitions for that model. Symbols and state keys are
// interned in the shared tables and re-mapped from the chain's internal
// ids. The entire operation is performed within a single transaction.
func (s *Store) Save(ctx context.Context, name string, c *chain.Chain[string]) error {
	snap := c.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	modelID, err := s.ensureModel(ctx, tx, name, snap.Order, true)
	if err != nil {
		return err
	}

	deleteTransitions := tx.StmtContext(ctx, s.stmtDeleteTransitions)
	if _, err = deleteTransitions.ExecContext(ctx, modelID); err != nil {
		return fmt.Errorf("failed to clear transitions for model '%s': %w", name, err)
	}

	stmtInsertTransition, err := tx.PrepareContext(ctx, `INSERT INTO chain_transitions (model_id, state_id, next_symbol_id, weight) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertTransition)

	symbolIDs, err := s.mapSymbols(ctx, tx, snap.Symbols)
	if err != nil {
		return err
	}

	stateCache := make(map[string]int64)
	getOrInsertState := tx.StmtContext(ctx, s.stmtGetOrInsertState)

	var keyBuf []byte
	for _, st := range snap.States {
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
			if _, err = stmtInsertTransition.ExecContext(ctx, modelID, stateID, symbolIDs[tr.Next], tr.Weight); err != nil {
				return fmt.Errorf("failed to insert transition (%d -> %d): %w", stateID, symbolIDs[tr.Next], err)
			}
		}
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int64("model_id", modelID),
		slog.Int("symbols", len(snap.Symbols)),
		slog.Int("states", len(snap.States)),
	)

	return tx.Commit()
}

// Load rebuilds a chain from the named model's stored rows, attaching the
// given random source. It returns ErrModelNotFound if the model does not
// exist; a model with no stored transitions loads as an untrained chain.
func (s *Store) Load(ctx context.Context, name string, src chain.Source) (*chain.Chain[string], error) {
	info, err := s.GetModel(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtLoadTransitions.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for model '%s': %w", name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	type storedTransition struct {
		next   int64
		weight uint64
	}
	states := make(map[string][]storedTransition)
	referenced := make(map[int64]struct{})

	for rows.Next() {
		var stateKey string
		var tr storedTransition
		if err = rows.Scan(&stateKey, &tr.next, &tr.weight); err != nil {
			return nil, err
		}
		states[stateKey] = append(states[stateKey], tr)
		if tr.next != EndSymbolID {
			referenced[tr.next] = struct{}{}
		}
		for _, id := range splitStateKey(stateKey) {
			if id != EndSymbolID {
				referenced[id] = struct{}{}
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Assign local ids in ascending database id order so that repeated
	// loads of the same model produce identical sampling order.
	dbIDs := make([]int64, 0, len(referenced))
	for id := range referenced {
		dbIDs = append(dbIDs, id)
	}
	slices.Sort(dbIDs)

	local := make(map[int64]uint32, len(dbIDs))
	snap := chain.Snapshot[string]{Order: info.Order}
	for i, id := range dbIDs {
		var text string
		if err = s.stmtGetSymbolText.QueryRowContext(ctx, id).Scan(&text); err != nil {
			return nil, fmt.Errorf("consistency error: symbol id %d referenced but not in symbol table: %w", id, err)
		}
		local[id] = uint32(i + 1)
		snap.Symbols = append(snap.Symbols, text)
	}
	local[EndSymbolID] = 0

	for stateKey, trs := range states {
		st := chain.StateSnapshot{Window: make([]uint32, 0, info.Order)}
		for _, id := range splitStateKey(stateKey) {
			st.Window = append(st.Window, local[id])
		}
		for _, tr := range trs {
			st.Transitions = append(st.Transitions, chain.TransitionSnapshot{Next: local[tr.next], Weight: tr.weight})
		}
		snap.States = append(snap.States, st)
	}

	c, err := chain.Restore(snap, src)
	if err != nil {
		return nil, fmt.Errorf("stored model '%s' is inconsistent: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
		slog.Int("states", len(snap.States)),
	)

	return c, nil
}

// ensureModel returns the id for a named model, creating it if absent. With
// updateOrder set, an existing model's order is overwritten; otherwise a
// mismatched order is an error.
func (s *Store) ensureModel(ctx context.Context, tx *sql.Tx, name string, order int, updateOrder bool) (int64, error) {
	var modelID int64
	var storedOrder int
	err := tx.StmtContext(ctx, s.stmtGetModel).QueryRowContext(ctx, name).Scan(&modelID, &storedOrder)
	if errors.Is(err, sql.ErrNoRows) {
		if err = tx.StmtContext(ctx, s.stmtAddModel).QueryRowContext(ctx, name, order).Scan(&modelID); err != nil {
			return 0, fmt.Errorf("failed to insert model '%s': %w", name, err)
		}
		return modelID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query model '%s': %w", name, err)
	}

	if storedOrder != order {
		if !updateOrder {
			return 0, fmt.Errorf("model '%s' has order %d, data has order %d", name, storedOrder, order)
		}
		if _, err = tx.StmtContext(ctx, s.stmtSetModelOrder).ExecContext(ctx, order, modelID); err != nil {
			return 0, fmt.Errorf("failed to update order for model '%s': %w", name, err)
		}
	}
	return modelID, nil
}

// mapSymbols interns a snapshot's symbols into the shared symbol table and
// returns the database id for each snapshot id (index 0 is the termination
// marker).
func (s *Store) mapSymbols(ctx context.Context, tx *sql.Tx, symbols []string) ([]int64, error) {
	insertSymbol := tx.StmtContext(ctx, s.stmtInsertSymbol)

	ids := make([]int64, len(symbols)+1)
	ids[0] = EndSymbolID
	for i, text := range symbols {
		var id int64
		if err := insertSymbol.QueryRowContext(ctx, text).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to get/insert symbol '%s': %w", text, err)
		}
		ids[i+1] = id
	}
	return ids, nil
}

// splitStateKey decodes a stored state key into its database symbol ids.
func splitStateKey(key string) []int64 {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, " ")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, _ := strconv.ParseInt(p, 10, 64)
		ids = append(ids, id)
	}
	return ids
}
