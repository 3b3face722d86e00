package models

type User struct {
	BaseModel
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Name         string   `json:"name" gorm:"type:text;not null"`
	Ratings      []Rating `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
