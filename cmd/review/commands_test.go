package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatWait(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"overdue", -3 * time.Hour, "now"},
		{"zero", 0, "now"},
		{"seconds", 30 * time.Second, "in less than a minute"},
		{"minutes", 45 * time.Minute, "in 45m"},
		{"hours", 5 * time.Hour, "in 5h"},
		{"just under two days", 47 * time.Hour, "in 47h"},
		{"days", 72 * time.Hour, "in 3d"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatWait(tc.d))
		})
	}
}
