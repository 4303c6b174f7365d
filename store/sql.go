package store

import (
	"bytes"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	mberrors "github.com/wippyai/mbridge/errors"
)

// dialect holds the statements that differ between drivers.
type dialect struct {
	schema  []string
	upsert  string
	pragmas []string
	single  bool
}

var dialects = map[string]dialect{
	"sqlite3": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS mglobal (
				gname TEXT NOT NULL,
				subs  BLOB NOT NULL,
				value BLOB NOT NULL,
				PRIMARY KEY (gname, subs)
			) WITHOUT ROWID`,
		},
		upsert: `INSERT INTO mglobal (gname, subs, value) VALUES (?, ?, ?)
			ON CONFLICT (gname, subs) DO UPDATE SET value = excluded.value`,
		pragmas: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
		},
		single: true,
	},
	"mysql": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS mglobal (
				gname VARCHAR(64) NOT NULL,
				subs  VARBINARY(1024) NOT NULL,
				value LONGBLOB NOT NULL,
				PRIMARY KEY (gname, subs)
			)`,
		},
		upsert: `INSERT INTO mglobal (gname, subs, value) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value)`,
	},
}

// Drivers returns the supported database/sql driver names.
func Drivers() []string { return []string{"sqlite3", "mysql"} }

// SQLStore keeps globals in one table of a SQL database. Subscript keys are
// stored as collation-encoded blobs, so range scans follow M order.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	driver  string
}

// OpenSQL opens a store on driver ("sqlite3" or "mysql") and creates the
// table when missing.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, mberrors.Unsupported(mberrors.PhaseStore, fmt.Sprintf("store driver %q", driver))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.PhaseStore, mberrors.KindInvalidInput, err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, mberrors.Wrap(mberrors.PhaseStore, mberrors.KindInvalidInput, err, "connect to database")
	}

	// SQLite allows one writer
	if d.single {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	for _, stmt := range append(d.pragmas, d.schema...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, mberrors.Wrap(mberrors.PhaseStore, mberrors.KindInvalidData, err, "prepare schema")
		}
	}

	Logger().Debug("store opened", zap.String("driver", driver))
	return &SQLStore{db: db, dialect: d, driver: driver}, nil
}

// Driver returns the database/sql driver name.
func (s *SQLStore) Driver() string { return s.driver }

func (s *SQLStore) Get(ref Ref) (string, bool, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM mglobal WHERE gname = ? AND subs = ?`,
		ref.Name, EncodeKey(ref.Subs)).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, queryErr(err, "get "+ref.String())
	}
	return string(v), true, nil
}

func (s *SQLStore) Set(ref Ref, value string) error {
	if _, err := s.db.Exec(s.dialect.upsert, ref.Name, EncodeKey(ref.Subs), []byte(value)); err != nil {
		return queryErr(err, "set "+ref.String())
	}
	return nil
}

func (s *SQLStore) Kill(ref Ref) error {
	key := EncodeKey(ref.Subs)
	_, err := s.db.Exec(`DELETE FROM mglobal WHERE gname = ? AND subs >= ? AND subs < ?`,
		ref.Name, key, subtreeEnd(key))
	if err != nil {
		return queryErr(err, "kill "+ref.String())
	}
	return nil
}

func (s *SQLStore) Unset(ref Ref) error {
	_, err := s.db.Exec(`DELETE FROM mglobal WHERE gname = ? AND subs = ?`, ref.Name, EncodeKey(ref.Subs))
	if err != nil {
		return queryErr(err, "unset "+ref.String())
	}
	return nil
}

func (s *SQLStore) Data(ref Ref) (int, error) {
	key := EncodeKey(ref.Subs)
	rows, err := s.db.Query(`SELECT subs FROM mglobal WHERE gname = ? AND subs >= ? AND subs < ?
		ORDER BY subs LIMIT 2`, ref.Name, key, subtreeEnd(key))
	if err != nil {
		return 0, queryErr(err, "data "+ref.String())
	}
	defer rows.Close()

	var value, children bool
	for rows.Next() {
		var k []byte
		if err := rows.Scan(&k); err != nil {
			return 0, queryErr(err, "data "+ref.String())
		}
		if bytes.Equal(k, key) {
			value = true
		} else {
			children = true
		}
	}
	if err := rows.Err(); err != nil {
		return 0, queryErr(err, "data "+ref.String())
	}

	d := DataNone
	if value {
		d += DataValue
	}
	if children {
		d += DataChildren
	}
	return d, nil
}

func (s *SQLStore) Order(ref Ref, dir int) (string, error) {
	if err := checkOrder(ref, dir); err != nil {
		return "", err
	}
	prefix, seed, fromEdge := orderBounds(ref)
	end := subtreeEnd(prefix)

	var (
		row *sql.Row
		k   []byte
	)
	if dir > 0 {
		from := append(append([]byte(nil), prefix...), 0)
		if !fromEdge {
			from = subtreeEnd(seed)
		}
		row = s.db.QueryRow(`SELECT subs FROM mglobal WHERE gname = ? AND subs >= ? AND subs < ?
			ORDER BY subs LIMIT 1`, ref.Name, from, end)
	} else {
		before := end
		if !fromEdge {
			before = seed
		}
		lo := append(append([]byte(nil), prefix...), 0)
		row = s.db.QueryRow(`SELECT subs FROM mglobal WHERE gname = ? AND subs >= ? AND subs < ?
			ORDER BY subs DESC LIMIT 1`, ref.Name, lo, before)
	}

	err := row.Scan(&k)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", queryErr(err, "order "+ref.String())
	}
	return firstSubscript(k, prefix)
}

func (s *SQLStore) Names() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT gname FROM mglobal ORDER BY gname`)
	if err != nil {
		return nil, queryErr(err, "names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, queryErr(err, "names")
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func queryErr(err error, what string) error {
	return mberrors.Wrap(mberrors.PhaseStore, mberrors.KindInvalidData, err, what)
}
