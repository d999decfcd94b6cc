package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExam_AdmissionOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		exam Exam
		want bool
	}{
		{
			name: "active with no window is open",
			exam: Exam{IsActive: true},
			want: true,
		},
		{
			name: "inactive is closed regardless of window",
			exam: Exam{IsActive: false},
			want: false,
		},
		{
			name: "inside window",
			exam: Exam{IsActive: true, StartDate: &before, EndDate: &after},
			want: true,
		},
		{
			name: "before start date",
			exam: Exam{IsActive: true, StartDate: &after},
			want: false,
		},
		{
			name: "after end date",
			exam: Exam{IsActive: true, EndDate: &before},
			want: false,
		},
		{
			name: "exactly at end date is still open",
			exam: Exam{IsActive: true, EndDate: &now},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.exam.AdmissionOpen(now))
		})
	}
}

func TestExam_ResultsPublished(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		exam Exam
		want bool
	}{
		{
			name: "manual flag publishes immediately",
			exam: Exam{PublishResults: true, ResultDate: &future},
			want: true,
		},
		{
			name: "result date passed",
			exam: Exam{ResultDate: &past},
			want: true,
		},
		{
			name: "result date exactly now",
			exam: Exam{ResultDate: &now},
			want: true,
		},
		{
			name: "result date in the future",
			exam: Exam{ResultDate: &future},
			want: false,
		},
		{
			name: "no flag and no date",
			exam: Exam{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.exam.ResultsPublished(now))
		})
	}
}

func TestAttempt_Deadline(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := Attempt{StartTime: start}
	exam := Exam{Duration: 90}

	assert.Equal(t, start.Add(90*time.Minute), attempt.Deadline(&exam))
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleStudent}).IsAdmin())
}
