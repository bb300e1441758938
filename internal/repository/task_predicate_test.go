package repository

import (
	"reflect"
	"testing"

	"github.com/taskdeck/taskdeck/internal/model"
)

func TestBuildTaskPredicate(t *testing.T) {
	tests := []struct {
		name      string
		filter    TaskFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "owner only",
			filter:    TaskFilter{OwnerID: "u1"},
			wantWhere: "WHERE owner_id = $1",
			wantArgs:  []any{"u1"},
		},
		{
			name:      "status",
			filter:    TaskFilter{OwnerID: "u1", Status: model.TaskStatusTodo},
			wantWhere: "WHERE owner_id = $1 AND status = $2",
			wantArgs:  []any{"u1", model.TaskStatusTodo},
		},
		{
			name:      "priority",
			filter:    TaskFilter{OwnerID: "u1", Priority: model.TaskPriorityHigh},
			wantWhere: "WHERE owner_id = $1 AND priority = $2",
			wantArgs:  []any{"u1", model.TaskPriorityHigh},
		},
		{
			name:      "search wraps wildcards",
			filter:    TaskFilter{OwnerID: "u1", Search: "report"},
			wantWhere: "WHERE owner_id = $1 AND (title ILIKE $2 OR description ILIKE $2)",
			wantArgs:  []any{"u1", "%report%"},
		},
		{
			name: "all filters keep placeholder order",
			filter: TaskFilter{
				OwnerID: "u1", Status: model.TaskStatusInProgress,
				Priority: model.TaskPriorityLow, Search: "q",
			},
			wantWhere: "WHERE owner_id = $1 AND status = $2 AND priority = $3 AND (title ILIKE $4 OR description ILIKE $4)",
			wantArgs:  []any{"u1", model.TaskStatusInProgress, model.TaskPriorityLow, "%q%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTaskPredicate(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}
