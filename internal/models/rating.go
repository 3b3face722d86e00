package models

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	BaseModel
	UserID    uint `json:"userId" gorm:"not null;uniqueIndex:idx_rating_user_reading"`
	ReadingID uint `json:"readingId" gorm:"not null;index;uniqueIndex:idx_rating_user_reading"`
	Rating    int  `json:"rating" gorm:"not null"`
}

func ValidRating(value int) bool {
	return value >= MinRating && value <= MaxRating
}
