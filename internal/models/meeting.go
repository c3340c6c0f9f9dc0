package models

import (
	"time"

	"gorm.io/datatypes"
)

type Meeting struct {
	ID           uint64                      `gorm:"primarykey" json:"id"`
	MeetingCode  string                      `gorm:"type:varchar(64);index" json:"meeting_id"`
	MeetingTopic string                      `gorm:"type:varchar(255);not null" json:"meeting_topic"`
	SelectDate   time.Time                   `json:"select_date"`
	SelectTime   string                      `gorm:"type:varchar(5)" json:"select_time"`
	ImageURL     string                      `gorm:"type:varchar(512)" json:"image_url,omitempty"`
	Tags         datatypes.JSONSlice[string] `json:"tag"`
	ReminderMail bool                        `gorm:"not null;default:false" json:"reminder_mail"`
	CreatedAt    time.Time                   `json:"timestamp"`

	// Relations
	Departments []MeetingDepartment `gorm:"foreignKey:MeetingID" json:"departments,omitempty"`
}

// MeetingDepartment ties a meeting to an invited department. The
// department reference is weak: deleting a department leaves the row in
// place and readers must tolerate the dangling id.
type MeetingDepartment struct {
	MeetingID    uint64 `gorm:"primarykey" json:"-"`
	DepartmentID uint64 `gorm:"primarykey" json:"dep_id"`
}

// DepartmentIDs returns the ids of all departments invited to the meeting.
func (m *Meeting) DepartmentIDs() []uint64 {
	ids := make([]uint64, 0, len(m.Departments))
	for _, d := range m.Departments {
		ids = append(ids, d.DepartmentID)
	}
	return ids
}

// StartsAt combines the stored date and "HH:MM" time into one instant in
// the given location. The two fields are stored separately and are only
// ever combined here.
func (m *Meeting) StartsAt(loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", m.SelectTime)
	if err != nil {
		return time.Time{}, err
	}
	d := m.SelectDate.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
