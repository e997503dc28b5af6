package db

import "testing"

func TestOpenGormSQLite(t *testing.T) {
	g, err := OpenGorm(Config{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var one int
	if err := g.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("select 1: %v (%d)", err, one)
	}
}

func TestOpenGormRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenGorm(Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := OpenGorm(Config{Driver: "postgres", DSN: "::not a url::"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
