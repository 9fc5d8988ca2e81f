package db

import (
	"strings"
	"testing"
	"time"
)

func TestBuildReadingsQuery(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	cases := []struct {
		name     string
		q        ReadingQuery
		contains []string
		args     int
	}{
		{"sensor only", ReadingQuery{Sensor: "kitchen"}, []string{"WHERE sensor = $1", "ORDER BY ts"}, 1},
		{"since and limit", ReadingQuery{Sensor: "kitchen", Since: &since, Limit: 10}, []string{"ts >= $2", "ORDER BY ts DESC LIMIT $3", ") newest ORDER BY ts"}, 3},
		{"full range", ReadingQuery{Sensor: "kitchen", Since: &since, Until: &until, Limit: 5}, []string{"ts >= $2", "ts <= $3", "ORDER BY ts DESC LIMIT $4"}, 4},
		{"until only", ReadingQuery{Sensor: "kitchen", Until: &until}, []string{"ts <= $2"}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := buildReadingsQuery(tc.q)
			for _, want := range tc.contains {
				if !strings.Contains(sql, want) {
					t.Errorf("query %q missing %q", sql, want)
				}
			}
			if len(args) != tc.args {
				t.Errorf("args = %d, want %d", len(args), tc.args)
			}
			if tc.q.Limit == 0 && (strings.Contains(sql, "LIMIT") || strings.Contains(sql, "DESC")) {
				t.Errorf("unexpected LIMIT or DESC in %q", sql)
			}
			if tc.q.Limit > 0 && args[len(args)-1] != tc.q.Limit {
				t.Errorf("last arg = %v, want limit %d", args[len(args)-1], tc.q.Limit)
			}
		})
	}
}

func TestBuildReadingsQueryLimitKeepsNewest(t *testing.T) {
	sql, _ := buildReadingsQuery(ReadingQuery{Sensor: "kitchen", Limit: 200})
	inner := strings.Index(sql, "DESC LIMIT")
	outer := strings.LastIndex(sql, "ORDER BY ts")
	if inner < 0 || outer < inner || strings.HasSuffix(sql, "DESC") {
		t.Fatalf("limit must select the newest rows and return them ascending: %q", sql)
	}
}

func TestNullTime(t *testing.T) {
	if nullTime(time.Time{}) != nil {
		t.Fatal("zero time should be NULL")
	}
	now := time.Now()
	if got := nullTime(now); got == nil || !got.Equal(now) {
		t.Fatalf("nullTime = %v", got)
	}
}
