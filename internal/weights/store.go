package weights

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedFormat indicates a store path with an unknown extension.
var ErrUnsupportedFormat = errors.New("weights: unsupported store format")

const (
	fileMode = 0o644

	ddl = `CREATE TABLE IF NOT EXISTS sample_weights (
	idx    INTEGER PRIMARY KEY,
	weight REAL NOT NULL
)`
)

type yamlDoc struct {
	Weights []float64 `yaml:"weights"`
}

// Load reads a weight vector from path. The format follows the extension:
// .db/.sqlite (table sample_weights), .yaml/.yml, or .bin (gonum VecDense).
// The values are returned verbatim.
func Load(path string) ([]float64, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite":
		return loadSQLite(path)
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read weights: %w", err)
		}
		var doc yamlDoc
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode weights %s: %w", path, err)
		}
		return doc.Weights, nil
	case ".bin":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read weights: %w", err)
		}
		defer f.Close()
		var v mat.VecDense
		if _, err := v.UnmarshalBinaryFrom(bufio.NewReader(f)); err != nil {
			return nil, fmt.Errorf("decode weights %s: %w", path, err)
		}
		return v.RawVector().Data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes w to path, replacing any previous content.
func Save(path string, w []float64) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite":
		return saveSQLite(path, w)
	case ".yaml", ".yml":
		b, err := yaml.Marshal(yamlDoc{Weights: w})
		if err != nil {
			return fmt.Errorf("encode weights: %w", err)
		}
		if err := os.WriteFile(path, b, fileMode); err != nil {
			return fmt.Errorf("write weights %s: %w", path, err)
		}
		return nil
	case ".bin":
		if len(w) == 0 {
			return errors.New("weights: cannot encode an empty vector")
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("write weights: %w", err)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		if _, err := mat.NewVecDense(len(w), w).MarshalBinaryTo(bw); err != nil {
			return fmt.Errorf("encode weights %s: %w", path, err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("write weights %s: %w", path, err)
		}
		return f.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open weights db %s: %w", path, err)
	}
	return db, nil
}

func loadSQLite(path string) ([]float64, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT idx, weight FROM sample_weights ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("query weights %s: %w", path, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var idx int
		var weight float64
		if err := rows.Scan(&idx, &weight); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		if idx != len(out) {
			return nil, fmt.Errorf("weights %s: expected index %d, found %d", path, len(out), idx)
		}
		out = append(out, weight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weights: %w", err)
	}
	return out, nil
}

func saveSQLite(path string, w []float64) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sample_weights`); err != nil {
		return fmt.Errorf("clear weights: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO sample_weights (idx, weight) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, v := range w {
		if _, err := stmt.Exec(i, v); err != nil {
			return fmt.Errorf("insert weight %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weights: %w", err)
	}
	return nil
}
