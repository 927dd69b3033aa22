package migrations

import "testing"

// Bun keys applied state by migration name, derived from the registering
// file. Duplicate names would make the apply order of the table creation and
// the question seed unspecified on a fresh database.
func TestMigrationNamesUniqueAndOrdered(t *testing.T) {
	sorted := Migrations.Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 registered migrations, got %d", len(sorted))
	}

	seen := make(map[string]struct{}, len(sorted))
	for _, m := range sorted {
		if m.Name == "" {
			t.Fatalf("migration %q has no name", m.Comment)
		}
		if _, dup := seen[m.Name]; dup {
			t.Fatalf("duplicate migration name %q", m.Name)
		}
		seen[m.Name] = struct{}{}
	}

	// The seed inserts into a table the first migration creates.
	if sorted[0].Comment != "quiz_tables" || sorted[1].Comment != "seed_questions" {
		t.Fatalf("unexpected order: %q then %q", sorted[0].Comment, sorted[1].Comment)
	}
	if sorted[0].Name >= sorted[1].Name {
		t.Fatalf("seed %q does not sort after tables %q", sorted[1].Name, sorted[0].Name)
	}
}
