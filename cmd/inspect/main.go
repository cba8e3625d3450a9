package main

// #region imports
import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vyxenlabs/vyxen-runtime/internal/audit"
	"github.com/vyxenlabs/vyxen-runtime/internal/identity"
)

// #endregion

// #region main

func main() {
	dbPath := flag.String("db", "", "path to runtime.db")
	section := flag.String("section", "all", "memory | identity | undo | audit | all")
	last := flag.Int("last", 20, "show N most recent entries")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/runtime.db [--section name] [--last N] [--json]")
		os.Exit(2)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	sections := map[string]func(*sql.DB, int, bool) error{
		"memory":   showMemory,
		"identity": showIdentity,
		"undo":     showUndo,
		"audit":    showAudit,
	}

	if *section != "all" {
		fn, ok := sections[*section]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown section %q\n", *section)
			os.Exit(2)
		}
		if err := fn(db, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, name := range []string{"identity", "memory", "undo", "audit"} {
		if !*jsonOut {
			fmt.Printf("== %s ==\n", name)
		}
		if err := sections[name](db, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error in %s: %v\n", name, err)
			os.Exit(1)
		}
		if !*jsonOut {
			fmt.Println()
		}
	}
}

// #endregion main

// #region memory

type memoryRow struct {
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	Relevance float32 `json:"relevance"`
	CreatedAt string  `json:"created_at"`
	ExpiresAt string  `json:"expires_at,omitempty"`
}

func showMemory(db *sql.DB, last int, jsonOut bool) error {
	rows, err := db.Query(
		`SELECT key, value, relevance, created_at, COALESCE(expires_at, '')
		 FROM memory_records ORDER BY relevance DESC, created_at DESC LIMIT ?`, last)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []memoryRow
	for rows.Next() {
		var r memoryRow
		if err := rows.Scan(&r.Key, &r.Value, &r.Relevance, &r.CreatedAt, &r.ExpiresAt); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("%-30s  %9s  %-25s  %s\n", "Key", "Relevance", "Created", "Value")
	for _, r := range out {
		fmt.Printf("%-30s  %9.3f  %-25s  %s\n", truncate(r.Key, 30), r.Relevance, r.CreatedAt, truncate(r.Value, 60))
	}
	return nil
}

// #endregion memory

// #region identity

func showIdentity(db *sql.DB, _ int, jsonOut bool) error {
	state, err := identity.Load(db, 0, 0, 1, nil)
	if err != nil {
		return err
	}
	snap := state.Snapshot()

	values := make(map[string]float32, len(identity.Traits))
	for i, name := range identity.Traits {
		values[name] = snap.Trait(i)
	}
	if jsonOut {
		return printJSON(map[string]any{"traits": values, "norm": state.Norm()})
	}
	for i, name := range identity.Traits {
		fmt.Printf("%-15s %.4f\n", name, snap.Trait(i))
	}
	fmt.Printf("%-15s %.4f\n", "norm", state.Norm())
	return nil
}

// #endregion identity

// #region undo

func showUndo(db *sql.DB, last int, jsonOut bool) error {
	rows, err := db.Query(
		`SELECT entry_id, action_id, command, state, created_at, expires_at
		 FROM undo_journal ORDER BY created_at DESC LIMIT ?`, last)
	if err != nil {
		return err
	}
	defer rows.Close()

	type undoRow struct {
		EntryID   string `json:"entry_id"`
		ActionID  string `json:"action_id"`
		Command   string `json:"command"`
		State     string `json:"state"`
		CreatedAt string `json:"created_at"`
		ExpiresAt string `json:"expires_at"`
	}
	var out []undoRow
	for rows.Next() {
		var r undoRow
		var createdAt, expiresAt int64
		if err := rows.Scan(&r.EntryID, &r.ActionID, &r.Command, &r.State, &createdAt, &expiresAt); err != nil {
			return err
		}
		r.CreatedAt = time.UnixMilli(createdAt).UTC().Format(time.RFC3339)
		r.ExpiresAt = time.UnixMilli(expiresAt).UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("%-26s  %-12s  %-11s  %s\n", "Command", "State", "Created", "Action")
	for _, r := range out {
		fmt.Printf("%-26s  %-12s  %-11s  %s\n", r.Command, r.State, r.CreatedAt[:10], r.ActionID)
	}
	return nil
}

// #endregion undo

// #region audit

func showAudit(db *sql.DB, last int, jsonOut bool) error {
	rec, err := audit.NewRecorder(db, nil)
	if err != nil {
		return err
	}
	entries, err := rec.Tail(last)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(entries)
	}
	fmt.Printf("%-20s  %-11s  %-10s  %-10s  %6s  %s\n", "Time", "Outcome", "Type", "Reality", "Score", "Detail")
	for _, e := range entries {
		fmt.Printf("%-20s  %-11s  %-10s  %-10s  %6.2f  %s\n",
			e.CreatedAt.Format("2006-01-02T15:04:05"), e.Outcome, e.ActionType, e.Reality, e.Score, truncate(e.Detail, 50))
	}
	return nil
}

// #endregion audit

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion helpers
