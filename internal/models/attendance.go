package models

type AttendanceState string

const (
	AttendanceAbsent  AttendanceState = "absent"
	AttendancePresent AttendanceState = "present"
	AttendanceExcused AttendanceState = "excused"
)

func (s AttendanceState) Valid() bool {
	switch s {
	case AttendanceAbsent, AttendancePresent, AttendanceExcused:
		return true
	default:
		return false
	}
}

type Attendance struct {
	MeetingID          uint            `json:"meetingId" gorm:"primaryKey;autoIncrement:false"`
	UserID             uint            `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	AttendanceState    AttendanceState `json:"attendanceState" gorm:"type:varchar(20);not null;default:'absent'"`
	IsDiscussionLeader bool            `json:"isDiscussionLeader" gorm:"not null;default:false"`
}

func (Attendance) TableName() string {
	return "attendance"
}
