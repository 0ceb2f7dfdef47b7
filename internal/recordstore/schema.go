package recordstore

import "strconv"

// createUsers is valid for both SQLite and Postgres. Entries are stored as
// JSON text; updated_at is Unix nanoseconds.
const createUsers = `CREATE TABLE IF NOT EXISTS users (
    owner_id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    avatar_ref TEXT NOT NULL,
    index_entry TEXT NOT NULL,
    trading_entry TEXT NOT NULL,
    updated_at BIGINT NOT NULL
)`

const userColumns = "owner_id, display_name, avatar_ref, index_entry, trading_entry, updated_at"

// upsertUser replaces every field of an existing row. updated_at never moves
// backwards: a clock that has not advanced past the stored value yields the
// stored value plus one.
const upsertUser = `INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id) DO UPDATE SET
    display_name = excluded.display_name,
    avatar_ref = excluded.avatar_ref,
    index_entry = excluded.index_entry,
    trading_entry = excluded.trading_entry,
    updated_at = CASE
        WHEN excluded.updated_at > users.updated_at THEN excluded.updated_at
        ELSE users.updated_at + 1
    END
RETURNING updated_at`

// insertUserIfAbsent never touches an existing row.
const insertUserIfAbsent = `INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id) DO NOTHING`

const selectUser = `SELECT ` + userColumns + ` FROM users WHERE owner_id = ?`

const selectUsers = `SELECT ` + userColumns + ` FROM users`

// dialect adapts the shared SQL to a driver.
type dialect struct {
	driver   string
	numbered bool // $1, $2, ... placeholders instead of ?
}

var (
	sqliteDialect   = dialect{driver: "sqlite"}
	postgresDialect = dialect{driver: "pgx", numbered: true}
)

// rebind rewrites ? placeholders for drivers that number them. The queries
// in this package contain no ? inside string literals.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			out = append(out, query[i])
			continue
		}
		n++
		out = append(out, '$')
		out = strconv.AppendInt(out, int64(n), 10)
	}
	return string(out)
}
