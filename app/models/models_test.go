package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityJSON(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		data, err := json.Marshal(p)
		require.NoError(t, err)

		var got Priority
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, p, got)
	}

	var p Priority
	require.NoError(t, json.Unmarshal([]byte(`"high"`), &p))
	assert.Equal(t, PriorityHigh, p)

	assert.Error(t, json.Unmarshal([]byte(`"urgent"`), &p))
}

func TestPriorityNames(t *testing.T) {
	for n, name := range map[Priority]string{1: "low", 2: "medium", 3: "high"} {
		assert.Equal(t, name, n.String())
		back, err := ParsePriority(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"low", PriorityLow, true},
		{" Medium ", PriorityMedium, true},
		{"3", PriorityHigh, true},
		{"0", 0, false},
		{"critical", 0, false},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTaskDecodesStringPriority(t *testing.T) {
	body := `{"id":7,"title":"Write report","priority":"low","completed":false,
		"depth":0,"is_subtask":false,"created_at":"2024-03-01T09:30:00"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(body), &task))
	assert.Equal(t, PriorityLow, task.Priority)
	assert.True(t, task.IsRoot())
	assert.Equal(t, 2024, task.CreatedAt.Year())
	assert.Equal(t, time.March, task.CreatedAt.Month())
}

func TestTimestampFormats(t *testing.T) {
	for _, in := range []string{
		`"2024-03-01T09:30:00Z"`,
		`"2024-03-01T09:30:00.123456"`,
		`"2024-03-01 09:30:00"`,
		`"Fri, 01 Mar 2024 09:30:00 GMT"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.Equal(t, 9, ts.Hour(), in)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestDraftRequest(t *testing.T) {
	root := TaskDraft{Title: "  Groceries ", Priority: PriorityHigh}
	data, err := json.Marshal(root.Request())
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Groceries","priority":3}`, string(data))

	parent := &Task{ID: 4, Depth: 1}
	sub := TaskDraft{Title: "Milk", Priority: PriorityLow, Parent: parent}.Request()
	require.NotNil(t, sub.ParentTaskID)
	require.NotNil(t, sub.Depth)
	assert.Equal(t, int64(4), *sub.ParentTaskID)
	assert.Equal(t, 2, *sub.Depth)
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("ok"))
	assert.NoError(t, ValidateTitle(strings.Repeat("é", MaxTitleLength)))

	err := ValidateTitle("   ")
	assert.True(t, IsValidationError(err))
	assert.Error(t, ValidateTitle(strings.Repeat("a", MaxTitleLength+1)))

	draft := TaskDraft{Title: "x", Priority: Priority(9)}
	assert.True(t, IsValidationError(draft.Validate()))
}

func TestTaskUpdate(t *testing.T) {
	var u TaskUpdate
	assert.True(t, u.Empty())
	assert.Error(t, u.Validate())

	p := PriorityLow
	u.Priority = &p
	require.NoError(t, u.Validate())
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"priority":1}`, string(data))
}

func TestFilter(t *testing.T) {
	tasks := []Task{
		{ID: 1, Completed: false},
		{ID: 2, Completed: true},
		{ID: 3, Completed: false},
	}

	pending := FilterPending.Apply(tasks)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].ID)
	assert.Equal(t, int64(3), pending[1].ID)
	assert.Equal(t, pending, FilterPending.Apply(pending))

	assert.Len(t, FilterCompleted.Apply(tasks), 1)
	assert.Equal(t, tasks, FilterAll.Apply(tasks))

	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)
	_, err = ParseFilter("done")
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 33, NewProgress(3, 1).Percentage)
	assert.Equal(t, 67, NewProgress(3, 2).Percentage)
	assert.Equal(t, 100, NewProgress(2, 2).Percentage)
	assert.Equal(t, 0, NewProgress(0, 0).Percentage)

	_, ok := Summarize(nil)
	assert.False(t, ok)

	p, ok := Summarize([]Task{{Completed: true}, {}, {}, {Completed: true}})
	require.True(t, ok)
	assert.Equal(t, Progress{Total: 4, Completed: 2, Percentage: 50}, p)
}

func TestTaskProgress(t *testing.T) {
	_, ok := Task{}.Progress()
	assert.False(t, ok)

	pct := 40
	p, ok := Task{SubtaskCount: 3, CompletedSubtaskCount: 1, CompletionPercentage: &pct}.Progress()
	require.True(t, ok)
	assert.Equal(t, 40, p.Percentage)

	p, _ = Task{SubtaskCount: 3, CompletedSubtaskCount: 1}.Progress()
	assert.Equal(t, 33, p.Percentage)
}

func TestRoots(t *testing.T) {
	parent := int64(1)
	tasks := []Task{
		{ID: 1},
		{ID: 2, ParentTaskID: &parent, IsSubtask: true},
		{ID: 3},
		{ID: 4, ParentTaskID: &parent},
	}
	roots := Roots(tasks)
	require.Len(t, roots, 3)
	assert.Equal(t, int64(3), roots[1].ID)
	assert.Equal(t, int64(4), roots[2].ID)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short", "short"))
	assert.Error(t, ValidatePassword("longenough", "different"))
	assert.NoError(t, ValidatePassword("longenough", "longenough"))
	assert.Error(t, ValidatePassword("ééé", "ééé"))
	assert.NoError(t, ValidatePassword("éééééé", "éééééé"))

	reg := Registration{Username: "carol", Email: "carol@example.com", Password: "secret1",
		SecurityQuestion: "Pet?", SecurityAnswer: "Rex"}
	assert.NoError(t, reg.Validate("secret1"))
	reg.Email = ""
	assert.True(t, IsValidationError(reg.Validate("secret1")))
}
