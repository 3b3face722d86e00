package models

type ReadingType string

const (
	ReadingTypePlay       ReadingType = "play"
	ReadingTypeNovel      ReadingType = "novel"
	ReadingTypeNonFiction ReadingType = "nonFiction"
)

func (t ReadingType) Valid() bool {
	switch t {
	case ReadingTypePlay, ReadingTypeNovel, ReadingTypeNonFiction:
		return true
	default:
		return false
	}
}

// A Reading is anything the club reads together: a book, an article, a play.
type Reading struct {
	BaseModel
	Title            string       `json:"title" gorm:"type:text;not null"`
	Author           string       `json:"author" gorm:"type:text;not null"`
	Type             *ReadingType `json:"type,omitempty" gorm:"type:varchar(20)"`
	AvgRating        *float64     `json:"avgRating,omitempty"`
	CurrentlyReading bool         `json:"currentlyReading" gorm:"not null;default:true;index"`
	CreatedBy        *uint        `json:"createdBy,omitempty" gorm:"index"`

	Ratings           []Rating           `json:"-" gorm:"foreignKey:ReadingID;constraint:OnDelete:CASCADE"`
	MeetingToReadings []MeetingToReading `json:"-" gorm:"foreignKey:ReadingID;constraint:OnDelete:CASCADE"`
}

