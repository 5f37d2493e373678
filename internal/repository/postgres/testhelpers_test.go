package postgres

import (
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	testTime      = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testEventTime = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
)

var eventColumnNames = []string{
	"id", "title", "description", "date_time", "location", "capacity", "reserved_count",
	"created_by", "category", "image_url", "image_key", "created_at", "updated_at",
}

func eventRows(id string, capacity, reserved int) *sqlmock.Rows {
	return sqlmock.NewRows(eventColumnNames).AddRow(
		id, "Go Meetup", "Talks and pizza", testEventTime, "Berlin", capacity, reserved,
		"user-1", "tech", "https://img.example/a.png", "events/a.png", testTime, testTime,
	)
}
