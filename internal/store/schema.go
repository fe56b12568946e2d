package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the query builders.
const (
	tableProfiles    = "profiles"
	tableCompletions = "completed_lessons"
	tableScores      = "quiz_scores"
	tablePurchases   = "shop_purchases"
	tableLLMEvents   = "llm_request_events"
	tableSequence    = "ledger_sequence"
)

var (
	profileColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "email", Type: field.TypeString, Default: ""},
		{Name: "username", Type: field.TypeString, Default: ""},
		{Name: "display_name", Type: field.TypeString, Default: ""},
		{Name: "bio", Type: field.TypeString, Default: ""},
		{Name: "avatar", Type: field.TypeString, Default: ""},
		{Name: "total_points", Type: field.TypeInt, Default: 0},
		{Name: "current_streak", Type: field.TypeInt, Default: 0},
		{Name: "last_activity_date", Type: field.TypeString, Size: 10, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profilesTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    profileColumns,
		PrimaryKey: []*schema.Column{profileColumns[0]},
		Indexes: []*schema.Index{
			{Name: "profiles_total_points", Columns: []*schema.Column{profileColumns[6]}},
		},
	}

	completionColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "completed_at", Type: field.TypeTime},
	}
	completionsTable = &schema.Table{
		Name:       tableCompletions,
		Columns:    completionColumns,
		PrimaryKey: []*schema.Column{completionColumns[0], completionColumns[1]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "completed_lessons_profiles",
			Columns:    []*schema.Column{completionColumns[0]},
			RefTable:   profilesTable,
			RefColumns: []*schema.Column{profileColumns[0]},
			OnDelete:   schema.Cascade,
		}},
	}

	scoreColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeInt},
		{Name: "points_earned", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	scoresTable = &schema.Table{
		Name:       tableScores,
		Columns:    scoreColumns,
		PrimaryKey: []*schema.Column{scoreColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quiz_scores_user_lesson", Columns: []*schema.Column{scoreColumns[2], scoreColumns[3]}},
		},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "quiz_scores_profiles",
			Columns:    []*schema.Column{scoreColumns[2]},
			RefTable:   profilesTable,
			RefColumns: []*schema.Column{profileColumns[0]},
			OnDelete:   schema.Cascade,
		}},
	}

	purchaseColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "item_id", Type: field.TypeString},
		{Name: "item_name", Type: field.TypeString},
		{Name: "item_type", Type: field.TypeString},
		{Name: "points_spent", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	purchasesTable = &schema.Table{
		Name:       tablePurchases,
		Columns:    purchaseColumns,
		PrimaryKey: []*schema.Column{purchaseColumns[0]},
		Indexes: []*schema.Index{
			{Name: "shop_purchases_user", Columns: []*schema.Column{purchaseColumns[2]}},
		},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "shop_purchases_profiles",
			Columns:    []*schema.Column{purchaseColumns[2]},
			RefTable:   profilesTable,
			RefColumns: []*schema.Column{profileColumns[0]},
			OnDelete:   schema.Cascade,
		}},
	}

	// The id column doubles as the ledger sequence.
	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_request_events_purpose", Columns: []*schema.Column{llmEventColumns[4]}},
		},
	}

	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTable = &schema.Table{
		Name:       tableSequence,
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	tables = []*schema.Table{
		profilesTable,
		completionsTable,
		scoresTable,
		purchasesTable,
		llmEventsTable,
		sequenceTable,
	}
)

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, tables...)
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
