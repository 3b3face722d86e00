package models

import "time"

type AssignmentType string

const (
	AssignmentTypePages    AssignmentType = "pages"
	AssignmentTypeChapters AssignmentType = "chapters"
	AssignmentTypeActs     AssignmentType = "acts"
)

func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentTypePages, AssignmentTypeChapters, AssignmentTypeActs:
		return true
	default:
		return false
	}
}

type Meeting struct {
	BaseModel
	MeetingDate time.Time `json:"meetingDate" gorm:"not null;index"`
	MeetingLink *string   `json:"meetingLink,omitempty" gorm:"type:text"`

	MeetingToReadings []MeetingToReading `json:"-" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
	Attendance        []Attendance       `json:"-" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
}

// MeetingToReading links a reading to a meeting together with the part
// of the reading assigned for it.
type MeetingToReading struct {
	ID              uint            `json:"meetingToReadingId" gorm:"primaryKey"`
	MeetingID       uint            `json:"meetingId" gorm:"not null;index"`
	ReadingID       uint            `json:"readingId" gorm:"not null;index"`
	AssignmentType  *AssignmentType `json:"assignmentType,omitempty" gorm:"type:varchar(20)"`
	AssignmentStart *string         `json:"assignmentStart,omitempty" gorm:"type:varchar(50)"`
	AssignmentEnd   *string         `json:"assignmentEnd,omitempty" gorm:"type:varchar(50)"`
}

func (MeetingToReading) TableName() string {
	return "meeting_to_readings"
}
