package migrate

import (
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationRejectsOutOfOrderVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "add coupon expiry", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "20261015093000_add_coupon_expiry.sql") {
		t.Fatalf("unexpected path %s", path)
	}

	if _, err := createSQLMigrationAt(dir, "same second", now); err == nil {
		t.Fatal("expected a clashing version to fail")
	}
	if _, err := createSQLMigrationAt(dir, "earlier", now.Add(-time.Hour)); err == nil {
		t.Fatal("expected an earlier version to fail")
	}
	if _, err := createSQLMigrationAt(dir, "later", now.Add(time.Second)); err != nil {
		t.Fatalf("expected a later version to pass: %v", err)
	}
	if _, err := createSQLMigrationAt(dir, "!!!", now.Add(time.Hour)); err == nil {
		t.Fatal("expected an empty sanitized name to fail")
	}
}
