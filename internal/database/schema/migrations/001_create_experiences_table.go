package migrations

import "github.com/jonathan/interview-insights/internal/database/schema"

var CreateExperiencesTable = schema.Migration{
	Version:     1,
	Description: "Create experiences table",
	Up: `
		CREATE TABLE IF NOT EXISTS experiences (
			row_id UUID,
			id String,
			seq UInt64,
			company String,
			role String,
			difficulty String,
			verdict String,
			feedback_sentiment String,
			nlp_processed Bool,
			source String,
			submitted_at String,
			record String,
			created_at DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (seq, id)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS experiences`,
}

// All lists every migration in version order.
var All = []schema.Migration{
	CreateExperiencesTable,
}
