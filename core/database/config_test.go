package database

import "testing"

func TestConfigURLEscapesCredentials(t *testing.T) {
	c := Config{Host: "db", User: "arr bot", Password: "p@ss/word", Name: "arrbot"}
	want := "postgres://arr%20bot:p%40ss%2Fword@db:5432/arrbot?sslmode=disable"
	if got := c.URL(); got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestConfigDSNQuotes(t *testing.T) {
	c := Config{Host: "db", Port: "6432", User: "arrbot", Password: "it's secret", Name: "arrbot", SSLMode: "require"}
	want := `user=arrbot password='it\'s secret' host=db port=6432 dbname=arrbot sslmode=require`
	if got := c.DSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
	if c.PoolSize() != defaultPoolSize {
		t.Fatalf("unexpected default pool size %d", c.PoolSize())
	}
}
