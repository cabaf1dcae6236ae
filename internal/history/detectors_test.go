package history

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDetector(t *testing.T) {
	d := InsertDetector{Alias: "Task"}
	ctx := context.Background()

	change, fired := d.Detect(ctx, Snapshot{}, Snapshot{"title": "Fix boiler"})
	require.True(t, fired)
	assert.Equal(t, "insert", change.Event)
	assert.Equal(t, "Task created: Fix boiler", change.Description)

	// Fires even when the new record is empty.
	change, fired = d.Detect(ctx, Snapshot{}, Snapshot{})
	require.True(t, fired)
	assert.Equal(t, "Task created", change.Description)

	// Never fires on an existing record, even if everything changed.
	_, fired = d.Detect(ctx, Snapshot{"title": "A"}, Snapshot{"title": "B"})
	assert.False(t, fired)
}

func TestFieldDetector(t *testing.T) {
	d := FieldDetector{Field: "title", Event: "title", Label: "Title", Icon: "pencil"}
	ctx := context.Background()

	change, fired := d.Detect(ctx, Snapshot{"title": "Old"}, Snapshot{"title": "New"})
	require.True(t, fired)
	assert.Equal(t, `Title changed from "Old" to "New"`, change.Description)

	_, fired = d.Detect(ctx, Snapshot{"title": "Same"}, Snapshot{"title": "Same"})
	assert.False(t, fired)

	// Insert case belongs to InsertDetector.
	_, fired = d.Detect(ctx, Snapshot{}, Snapshot{"title": "New"})
	assert.False(t, fired)
}

func TestRefDetector(t *testing.T) {
	d := RefDetector{Field: "room_id", Event: "room", Label: "Room"}
	ctx := context.Background()

	// Numeric ids compare numerically: leading zeros are not a change.
	_, fired := d.Detect(ctx, Snapshot{"room_id": "042"}, Snapshot{"room_id": "42"})
	assert.False(t, fired)

	change, fired := d.Detect(ctx, Snapshot{"room_id": "12"}, Snapshot{"room_id": "14"})
	require.True(t, fired)
	assert.Equal(t, "Room changed from #12 to #14", change.Description)

	change, fired = d.Detect(ctx, Snapshot{"room_id": ""}, Snapshot{"room_id": "7"})
	require.True(t, fired)
	assert.Equal(t, "Room changed from none to #7", change.Description)
}

func TestDateDetector(t *testing.T) {
	d := DateDetector{Field: "due_at", Event: "due_date", Label: "Due date"}
	ctx := context.Background()

	// Same instant in different zones is not a change.
	_, fired := d.Detect(ctx,
		Snapshot{"due_at": "2026-03-10T12:00:00Z"},
		Snapshot{"due_at": "2026-03-10T14:00:00+02:00"},
	)
	assert.False(t, fired)

	change, fired := d.Detect(ctx,
		Snapshot{"due_at": "2026-03-10T12:00:00Z"},
		Snapshot{"due_at": "2026-03-11T12:00:00Z"},
	)
	require.True(t, fired)
	assert.Contains(t, change.Description, "Mar 10, 2026")
	assert.Contains(t, change.Description, "Mar 11, 2026")

	// Unparseable values fall back to string comparison.
	_, fired = d.Detect(ctx, Snapshot{"due_at": "soonish"}, Snapshot{"due_at": "soonish"})
	assert.False(t, fired)
	_, fired = d.Detect(ctx, Snapshot{"due_at": "soonish"}, Snapshot{"due_at": "later"})
	assert.True(t, fired)
}

func TestSetDetector(t *testing.T) {
	d := SetDetector{Field: "tag_ids", Event: "tags", Label: "Tags"}
	ctx := context.Background()

	prev := Snapshot{"tag_ids": `["A","B","C"]`}
	curr := Snapshot{"tag_ids": `["B","C","D"]`}

	assert.Equal(t, []string{"D"}, d.AddedItems(prev, curr))
	assert.Equal(t, []string{"A"}, d.RemovedItems(prev, curr))

	change, fired := d.Detect(ctx, prev, curr)
	require.True(t, fired)
	assert.Equal(t, "Tags added: D; Tags removed: A", change.Description)

	// Order is irrelevant.
	_, fired = d.Detect(ctx,
		Snapshot{"tag_ids": `["A","B"]`},
		Snapshot{"tag_ids": `["B","A"]`},
	)
	assert.False(t, fired)

	// Empty to empty is irrelevant too.
	_, fired = d.Detect(ctx, Snapshot{"tag_ids": `[]`}, Snapshot{"tag_ids": ""})
	assert.False(t, fired)
}

func TestSetDetectorItemName(t *testing.T) {
	d := SetDetector{
		Field: "operator_ids",
		Event: "operators",
		Label: "Operators",
		ItemName: func(_ context.Context, item string) string {
			return strings.ToUpper(item)
		},
	}
	change, fired := d.Detect(context.Background(),
		Snapshot{"operator_ids": `[]`},
		Snapshot{"operator_ids": `["ana"]`},
	)
	require.True(t, fired)
	assert.Equal(t, "Operators added: ANA", change.Description)
}

func TestDiffDetector(t *testing.T) {
	d := DiffDetector{Field: "notes", Event: "notes", Label: "Notes"}
	ctx := context.Background()

	change, fired := d.Detect(ctx,
		Snapshot{"notes": "check the sink\nand the window\n"},
		Snapshot{"notes": "check the sink\nand the door\n"},
	)
	require.True(t, fired)
	assert.Contains(t, change.Description, "-and the window")
	assert.Contains(t, change.Description, "+and the door")

	_, fired = d.Detect(ctx, Snapshot{"notes": "same"}, Snapshot{"notes": "same"})
	assert.False(t, fired)
}

func TestStatusDetector(t *testing.T) {
	d := NewStatusDetector(strings.ToUpper)

	change, fired := d.Detect(context.Background(),
		Snapshot{"status": "pending"},
		Snapshot{"status": "ongoing"},
	)
	require.True(t, fired)
	assert.Equal(t, "Status changed from PENDING to ONGOING", change.Description)
}
