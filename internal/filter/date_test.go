package filter

import (
	"testing"
	"time"

	"pulse-job-scraper/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"2024-09-05", "2024-09-05"},
		{"2024-09-05T00:00:00", "2024-09-05"},
		{"Closing date: 5 September 2024", "2024-09-05"},
		{"Friday, 13th Sep 2024 11:59 PM", "2024-09-13"},
		{"September 5, 2024", "2024-09-05"},
		{"05/09/2024", "2024-09-05"},
		{"20/03/2024 11:59 PM", "2024-03-20"},
		{"Wed, 20 Mar 2024", "2024-03-20"},
		{"20-Mar-2024", "2024-03-20"},
		{"20.Mar.2024", "2024-03-20"},
		{"20 Mar 24", "2024-03-20"},
		{"Closes 20 Mar 24 at 5pm", "2024-03-20"},
		{"2024/03/20", "2024-03-20"},
		{"20.03.2024", "2024-03-20"},
		{"20-03-2024", "2024-03-20"},
		{"20/03/24", "2024-03-20"},
		{"Sept 5, 2024", "2024-09-05"},
		{"Closes in 2 weeks on 20 Mar 2024", "2024-03-20"},
		{"3 May 11:59 PM", ""},
		{"31 February 2024", ""},
		{"Ongoing position", ""},
		{"", ""},
		{"soon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDate(tt.in))
		})
	}
}

func TestRecentJobs(t *testing.T) {
	now := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	jobs := []models.JobRecord{
		{ID: "old", ClosingDate: now.AddDate(0, 0, -40).Format("2006-01-02"), LastSeen: now},
		{ID: "recent", ClosingDate: now.AddDate(0, 0, -10).Format("2006-01-02"), LastSeen: now},
		{ID: "open", ClosingDate: now.AddDate(0, 0, 14).Format("2006-01-02"), LastSeen: now},
		{ID: "no-closing-seen-now", LastSeen: now.Add(-time.Hour)},
		{ID: "no-closing-stale", LastSeen: now.AddDate(0, -2, 0)},
	}

	got := RecentJobs(jobs, now, 30*24*time.Hour)

	var ids []string
	for _, j := range got {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"open", "no-closing-seen-now", "recent"}, ids)
}

func TestIsWithinWindow(t *testing.T) {
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	assert.True(t, IsWithinWindow(now.Add(-window), now, window))
	assert.False(t, IsWithinWindow(now.Add(-window-time.Second), now, window))
	assert.True(t, IsWithinWindow(now.AddDate(0, 1, 0), now, window))
	assert.False(t, IsWithinWindow(time.Time{}, now, window))
}
