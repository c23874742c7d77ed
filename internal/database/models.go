package database

import (
	"time"

	"gorm.io/datatypes"
)

// Roles recognized by the API. Everything that is not an admin is treated as
// a regular user, including anonymous callers.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Model is the shared base for all persisted types. No DeletedAt: deletes
// are permanent, so removed rows cannot shadow the unique email indexes.
type Model struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents an account on the platform.
type User struct {
	Model
	Name         string `gorm:"size:64"`
	Email        string `gorm:"uniqueIndex;size:191"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:16;default:user"`
}

// Workout is a published exercise routine.
type Workout struct {
	Model
	Title           string `gorm:"size:255"`
	Description     string `gorm:"type:text"`
	Category        string `gorm:"size:64;index"`
	Difficulty      string `gorm:"size:32;index"`
	DurationMinutes int
	MuscleGroups    datatypes.JSON `gorm:"type:jsonb"`
	ImageKey        string         `gorm:"size:512"`
	Published       bool           `gorm:"default:false;index"`
	UserID          uint           `gorm:"index"`
	Author          User           `gorm:"foreignKey:UserID"`
}

// NutritionPlan is a meal plan; Meals holds the structured day-by-day content.
type NutritionPlan struct {
	Model
	Title       string         `gorm:"size:255"`
	Description string         `gorm:"type:text"`
	DietType    string         `gorm:"size:64;index"`
	Calories    int
	Meals       datatypes.JSON `gorm:"type:jsonb"`
	ImageKey    string         `gorm:"size:512"`
	Published   bool           `gorm:"default:false;index"`
	UserID      uint           `gorm:"index"`
	Author      User           `gorm:"foreignKey:UserID"`
}

// BlogPost is an editorial article.
type BlogPost struct {
	Model
	Title     string         `gorm:"size:255"`
	Excerpt   string         `gorm:"size:512"`
	Content   string         `gorm:"type:text"`
	Category  string         `gorm:"size:64;index"`
	Tags      datatypes.JSON `gorm:"type:jsonb"`
	ImageKey  string         `gorm:"size:512"`
	Published bool           `gorm:"default:false;index"`
	UserID    uint           `gorm:"index"`
	Author    User           `gorm:"foreignKey:UserID"`
}

// CommunityPost is user-generated feed content. There is no visibility flag:
// community posts are always visible.
type CommunityPost struct {
	Model
	Content  string `gorm:"type:text"`
	ImageKey string `gorm:"size:512"`
	UserID   uint   `gorm:"index"`
	Author   User   `gorm:"foreignKey:UserID"`
}

// ProgressLog is a private per-user measurement record.
type ProgressLog struct {
	Model
	UserID     uint      `gorm:"index"`
	Date       time.Time `gorm:"index"`
	WeightKg   float64
	BodyFatPct float64
	Notes      string `gorm:"type:text"`
}

// Subscriber is a newsletter recipient.
type Subscriber struct {
	Model
	Email string `gorm:"uniqueIndex;size:191"`
}
