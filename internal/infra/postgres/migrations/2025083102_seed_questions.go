package migrations

import (
	"context"
	"encoding/json"

	"confluenze-quiz-service/internal/infra/memory"
	"github.com/uptrace/bun"
)

// Seed the fixed event bank so a fresh database can serve questions
// without any manual insert.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			data, err := json.Marshal(memory.DefaultQuestionBank())
			if err != nil {
				return err
			}
			_, err = db.Exec(
				`INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO NOTHING`,
				defaultQuestionSetID, string(data))
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DELETE FROM question_sets WHERE id = ?`, defaultQuestionSetID)
			return err
		},
	)
}

// Matches postgres.DefaultQuestionSetID; duplicated to keep the migration
// package free of a dependency on the store package.
const defaultQuestionSetID = "confluenze-2025"
