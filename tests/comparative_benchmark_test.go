//go:build comparative

package tests

import (
	"database/sql"
	"strconv"
	"testing"

	aetherdb "github.com/Sky-Genesis-Enterprise/aetherdb-cli"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/db"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Comparative benchmarks against DuckDB over the same workloads. DuckDB
// is a columnar analytical engine, so these are not a horse race; they
// put AetherDB's full-scan numbers next to a known baseline.
//
// Run with: go test -bench . -tags comparative ./tests

// setupAetherDB creates an AetherDB engine with test data
func setupAetherDB(b *testing.B) (*db.Engine, *auth.Session) {
	b.Helper()
	engine := aetherdb.Open("").Engine()
	session, err := engine.Resume(auth.BootstrapUser)
	if err != nil {
		b.Fatalf("Failed to open session: %v", err)
	}

	if _, err := engine.Execute("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER, city TEXT);", session); err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}
	for i := 1; i <= 1000; i++ {
		_, err := engine.Execute("INSERT INTO users (id, name, age, city) VALUES ("+
			strconv.Itoa(i)+", 'User"+strconv.Itoa(i)+"', "+strconv.Itoa(20+i%50)+", 'City"+strconv.Itoa(i%10)+"');", session)
		if err != nil {
			b.Fatalf("Failed to insert: %v", err)
		}
	}

	return engine, session
}

// setupDuckDB creates a DuckDB instance with identical test data
func setupDuckDB(b *testing.B) *sql.DB {
	b.Helper()
	duck, err := sql.Open("duckdb", "")
	if err != nil {
		b.Fatalf("Failed to open DuckDB: %v", err)
	}

	if _, err := duck.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR, age INTEGER, city VARCHAR)"); err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}
	for i := 1; i <= 1000; i++ {
		_, err := duck.Exec("INSERT INTO users VALUES (?, ?, ?, ?)",
			i, "User"+strconv.Itoa(i), 20+i%50, "City"+strconv.Itoa(i%10))
		if err != nil {
			b.Fatalf("Failed to insert: %v", err)
		}
	}

	return duck
}

func drainRows(b *testing.B, rows *sql.Rows) {
	b.Helper()
	for rows.Next() {
		var id, age int
		var name, city string
		rows.Scan(&id, &name, &age, &city)
	}
	rows.Close()
}

func BenchmarkAetherDB_SelectAll(b *testing.B) {
	engine, session := setupAetherDB(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.Execute("SELECT * FROM users;", session); err != nil {
			b.Fatalf("Execute error: %v", err)
		}
	}
}

func BenchmarkDuckDB_SelectAll(b *testing.B) {
	duck := setupDuckDB(b)
	defer duck.Close()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rows, err := duck.Query("SELECT * FROM users")
		if err != nil {
			b.Fatalf("Query error: %v", err)
		}
		drainRows(b, rows)
	}
}

func BenchmarkAetherDB_SelectWhere(b *testing.B) {
	engine, session := setupAetherDB(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.Execute("SELECT * FROM users WHERE age > 40;", session); err != nil {
			b.Fatalf("Execute error: %v", err)
		}
	}
}

func BenchmarkDuckDB_SelectWhere(b *testing.B) {
	duck := setupDuckDB(b)
	defer duck.Close()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rows, err := duck.Query("SELECT * FROM users WHERE age > 40")
		if err != nil {
			b.Fatalf("Query error: %v", err)
		}
		drainRows(b, rows)
	}
}

func BenchmarkAetherDB_Insert(b *testing.B) {
	engine, session := setupAetherDB(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		id := strconv.Itoa(10000 + i)
		_, err := engine.Execute("INSERT INTO users (id, name, age, city) VALUES ("+id+", 'Bench', 30, 'Nowhere');", session)
		if err != nil {
			b.Fatalf("Execute error: %v", err)
		}
	}
}

func BenchmarkDuckDB_Insert(b *testing.B) {
	duck := setupDuckDB(b)
	defer duck.Close()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := duck.Exec("INSERT INTO users VALUES (?, ?, ?, ?)", 10000+i, "Bench", 30, "Nowhere")
		if err != nil {
			b.Fatalf("Exec error: %v", err)
		}
	}
}

func BenchmarkAetherDB_Update(b *testing.B) {
	engine, session := setupAetherDB(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.Execute("UPDATE users SET age = 99 WHERE city = 'City3';", session); err != nil {
			b.Fatalf("Execute error: %v", err)
		}
	}
}

func BenchmarkDuckDB_Update(b *testing.B) {
	duck := setupDuckDB(b)
	defer duck.Close()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := duck.Exec("UPDATE users SET age = 99 WHERE city = 'City3'"); err != nil {
			b.Fatalf("Exec error: %v", err)
		}
	}
}
