package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ModelInfo holds the essential metadata for a stored model: its unique id,
// name, and chain order.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// ModelStats holds aggregated statistics for a single stored model.
type ModelStats struct {
	Transitions int    // unique state -> next_symbol links
	TotalWeight uint64 // sum of all link weights
}

// DBStats holds aggregated statistics for the entire database.
type DBStats struct {
	Models      []ModelInfo        // all models in the database
	Stats       map[int]ModelStats // model id -> stats
	SymbolCount int                // unique symbols across all models
	StateCount  int                // unique state keys across all models
}

// ErrModelNotFound is returned when a named model does not exist in the
// database.
var ErrModelNotFound = errors.New("chainstore: model not found")

// Store persists chain models in a SQLite database. It holds the database
// connection and prepared statements for the common operations.
type Store struct {
	db                    *sql.DB
	stmtGetModel          *sql.Stmt
	stmtGetModels         *sql.Stmt
	stmtAddModel          *sql.Stmt
	stmtSetModelOrder     *sql.Stmt
	stmtInsertSymbol      *sql.Stmt
	stmtGetSymbolText     *sql.Stmt
	stmtGetOrInsertState  *sql.Stmt
	stmtLoadTransitions   *sql.Stmt
	stmtModelTransitions  *sql.Stmt
	stmtModelWeight       *sql.Stmt
	stmtCountSymbols      *sql.Stmt
	stmtCountStates       *sql.Stmt
	stmtDeleteTransitions *sql.Stmt
	logger                *slog.Logger
}

// NewStore creates a Store over an initialized database (see SetupSchema),
// pre-compiling all necessary SQL statements. It returns an error if any
// preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModel, err := db.Prepare(`SELECT model_id, model_order FROM chain_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, model_order FROM chain_models;`)
	if err != nil {
		return nil, err
	}

	stmtAddModel, err := db.Prepare(`INSERT INTO chain_models (model_name, model_order) VALUES (?, ?) RETURNING model_id;`)
	if err != nil {
		return nil, err
	}

	stmtSetModelOrder, err := db.Prepare(`UPDATE chain_models SET model_order = ? WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtInsertSymbol, err := db.Prepare(`INSERT INTO chain_symbols (symbol_text) VALUES (?) ON CONFLICT(symbol_text) DO UPDATE SET symbol_text=excluded.symbol_text RETURNING symbol_id;`)
	if err != nil {
		return nil, err
	}

	stmtGetSymbolText, err := db.Prepare(`SELECT symbol_text FROM chain_symbols WHERE symbol_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetOrInsertState, err := db.Prepare(`INSERT INTO chain_states (state_key) VALUES (?) ON CONFLICT(state_key) DO UPDATE SET state_key=excluded.state_key RETURNING state_id;`)
	if err != nil {
		return nil, err
	}

	stmtLoadTransitions, err := db.Prepare(`SELECT s.state_key, t.next_symbol_id, t.weight FROM chain_transitions t JOIN chain_states s ON s.state_id = t.state_id WHERE t.model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelTransitions, err := db.Prepare(`SELECT COUNT(*) FROM chain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtModelWeight, err := db.Prepare(`SELECT coalesce(SUM(weight), 0) FROM chain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	// The reserved termination row is not a trained symbol.
	stmtCountSymbols, err := db.Prepare(`SELECT COUNT(*) FROM chain_symbols WHERE symbol_id != 0;`)
	if err != nil {
		return nil, err
	}

	stmtCountStates, err := db.Prepare(`SELECT COUNT(*) FROM chain_states;`)
	if err != nil {
		return nil, err
	}

	stmtDeleteTransitions, err := db.Prepare(`DELETE FROM chain_transitions WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                    db,
		stmtGetModel:          stmtGetModel,
		stmtGetModels:         stmtGetModels,
		stmtAddModel:          stmtAddModel,
		stmtSetModelOrder:     stmtSetModelOrder,
		stmtInsertSymbol:      stmtInsertSymbol,
		stmtGetSymbolText:     stmtGetSymbolText,
		stmtGetOrInsertState:  stmtGetOrInsertState,
		stmtLoadTransitions:   stmtLoadTransitions,
		stmtModelTransitions:  stmtModelTransitions,
		stmtModelWeight:       stmtModelWeight,
		stmtCountSymbols:      stmtCountSymbols,
		stmtCountStates:       stmtCountStates,
		stmtDeleteTransitions: stmtDeleteTransitions,
		logger:                slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. It should
// be called when the Store is no longer needed; the database connection
// itself remains the caller's to close.
func (s *Store) Close() {
	_ = s.stmtGetModel.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtAddModel.Close()
	_ = s.stmtSetModelOrder.Close()
	_ = s.stmtInsertSymbol.Close()
	_ = s.stmtGetSymbolText.Close()
	_ = s.stmtGetOrInsertState.Close()
	_ = s.stmtLoadTransitions.Close()
	_ = s.stmtModelTransitions.Close()
	_ = s.stmtModelWeight.Close()
	_ = s.stmtCountSymbols.Close()
	_ = s.stmtCountStates.Close()
	_ = s.stmtDeleteTransitions.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are
// discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetModel retrieves the metadata for a single model by name, returning
// ErrModelNotFound if it does not exist.
func (s *Store) GetModel(ctx context.Context, name string) (ModelInfo, error) {
	var id, order int
	err := s.stmtGetModel.QueryRowContext(ctx, name).Scan(&id, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{Id: id, Name: name, Order: order}, nil
}

// Models retrieves metadata for all models in the database, keyed by model
// name.
func (s *Store) Models(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// Delete removes a model and all of its transitions from the database. The
// operation is performed within a transaction. Shared symbols and state
// keys are left in place, as other models may reference them.
func (s *Store) Delete(ctx context.Context, model ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM chain_transitions WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", model.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM chain_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)

	return tx.Commit()
}

// Stats returns a snapshot of statistics for the entire database, including
// global counts and per-model stats.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	modelInfos, err := s.Models(ctx)
	if err != nil {
		return nil, err
	}

	var symbolCount int
	if err = s.stmtCountSymbols.QueryRowContext(ctx).Scan(&symbolCount); err != nil {
		return nil, err
	}

	var stateCount int
	if err = s.stmtCountStates.QueryRowContext(ctx).Scan(&stateCount); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(modelInfos))
	modelStats := make(map[int]ModelStats)
	for _, v := range modelInfos {
		models = append(models, v)
		var st ModelStats
		if err = s.stmtModelTransitions.QueryRowContext(ctx, v.Id).Scan(&st.Transitions); err != nil {
			return nil, err
		}
		if err = s.stmtModelWeight.QueryRowContext(ctx, v.Id).Scan(&st.TotalWeight); err != nil {
			return nil, err
		}
		modelStats[v.Id] = st
	}

	return &DBStats{
		Models:      models,
		Stats:       modelStats,
		SymbolCount: symbolCount,
		StateCount:  stateCount,
	}, nil
}
