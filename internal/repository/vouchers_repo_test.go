package repository

import (
	"testing"
)

func TestExclusionList(t *testing.T) {
	tests := []struct {
		name      string
		excluding []string
		want      string
	}{
		{
			name:      "nil list binds as empty array",
			excluding: nil,
			want:      "{}",
		},
		{
			name:      "empty list binds as empty array",
			excluding: []string{},
			want:      "{}",
		},
		{
			name:      "single entry",
			excluding: []string{"VCH-001"},
			want:      `{"VCH-001"}`,
		},
		{
			name:      "multiple entries",
			excluding: []string{"VCH-001", "VCH-002"},
			want:      `{"VCH-001","VCH-002"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := exclusionList(tt.excluding).Value()
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}
			got, ok := val.(string)
			if !ok {
				// A NULL binding here would make `voucher_id <> ALL($1)`
				// match no rows, starving allocation against a full pool.
				t.Fatalf("bound value is %T, want string", val)
			}
			if got != tt.want {
				t.Errorf("bound value = %q, want %q", got, tt.want)
			}
		})
	}
}
