package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID    string `gorm:"primaryKey;size:10" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         Role        `gorm:"type:text;not null" json:"role"`
	Active       bool        `gorm:"default:true" json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	UserDetails  UserDetails `gorm:"foreignKey:UserID" json:"details,omitempty"`
}

type UserDetails struct {
	UserID            string            `gorm:"primaryKey;size:10" json:"user_id"`
	City              string            `json:"city"`
	State             string            `json:"state"`
	Country           string            `json:"country"`
	Zipcode           string            `json:"zipcode"`
	Phone             string            `json:"phone"`
	DOB               *time.Time        `json:"dob"`
	School            string            `json:"school"`
	GraduationYear    int               `json:"graduation_year"`
	Sport             string            `json:"sport"`
	Position          string            `json:"position"`
	HeightCm          int               `json:"height_cm"`
	WeightKg          int               `json:"weight_kg"`
	GPA               float64           `gorm:"column:gpa" json:"gpa"`
	Bio               string            `json:"bio"`
	ProfilePictureURL string            `json:"profile_picture_url"`
	AdditionalInfo    datatypes.JSONMap `gorm:"type:jsonb" json:"additional_info"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type RefreshToken struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string    `gorm:"index;size:10" json:"user_id"`
	TokenHash string    `gorm:"not null" json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

// PasswordSetupToken is a one-shot token emailed to newly provisioned
// accounts (coach approval) and to users requesting a password reset.
type PasswordSetupToken struct {
	ID        string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string     `gorm:"index;size:10" json:"user_id"`
	TokenHash string     `gorm:"not null" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Relation: table "relations", columns user_id, parent_id, recruiter_id.
// Links an athlete to a guardian account and optionally a recruiter who
// follows them. Composite PK (parent_id, user_id).
type Relation struct {
	ParentID    string `gorm:"column:parent_id;size:10;primaryKey"`
	UserID      string `gorm:"column:user_id;size:10;primaryKey"`
	RecruiterID string `gorm:"column:recruiter_id;size:10;index"`
}

func (Relation) TableName() string { return "relations" }

// Membership rows are never hard-deleted; history is kept for audit.
// At most one row per user may be active or trialing at a time.
type Membership struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    string           `gorm:"index;size:10;not null" json:"user_id"`
	Tier      Tier             `gorm:"type:text;not null;default:'free'" json:"tier"`
	Status    MembershipStatus `gorm:"type:text;not null;index" json:"status"`
	StartDate time.Time        `json:"start_date"`
	EndDate   *time.Time       `gorm:"index" json:"end_date"` // nil = no expiry tracked
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type ReminderBucket string

const (
	Reminder30Days ReminderBucket = "30_days"
	Reminder7Days  ReminderBucket = "7_days"
	Reminder1Day   ReminderBucket = "1_day"
)

// MembershipReminder records a sent renewal reminder. The unique index on
// (membership_id, bucket) is what makes the reminder job idempotent across
// repeated runs.
type MembershipReminder struct {
	ID           string         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MembershipID uint           `gorm:"uniqueIndex:ux_membership_reminder;not null" json:"membership_id"`
	Bucket       ReminderBucket `gorm:"type:text;uniqueIndex:ux_membership_reminder;not null" json:"bucket"`
	SentAt       time.Time      `json:"sent_at"`
}

type Evaluation struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	AthleteID string           `gorm:"index;size:10;not null" json:"athlete_id"`
	Athlete   User             `gorm:"foreignKey:AthleteID;references:ID" json:"athlete,omitempty"`
	Status    EvaluationStatus `gorm:"type:text;not null;index" json:"status"`

	// CoachID stays nil until a coach claims the evaluation. The claim is a
	// conditional update on "coach_id IS NULL"; see store.ClaimEvaluation.
	CoachID *string `gorm:"index;size:10" json:"coach_id"`
	Coach   *User   `gorm:"foreignKey:CoachID;references:ID" json:"coach,omitempty"`

	PaymentRef  string         `gorm:"size:64" json:"payment_ref"`
	Notes       string         `gorm:"type:text" json:"notes"`
	Results     datatypes.JSON `gorm:"type:jsonb" json:"results"`
	ReportKey   string         `json:"report_key,omitempty"` // object key in media storage
	PurchasedAt time.Time      `gorm:"index;not null" json:"purchased_at"`
	ClaimedAt   *time.Time     `json:"claimed_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type CoachApplication struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Email      string            `gorm:"index;not null" json:"email"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Sport      string            `json:"sport"`
	Experience string            `gorm:"type:text" json:"experience"`
	Credential string            `gorm:"type:text" json:"credential"`
	Extra      datatypes.JSONMap `gorm:"type:jsonb" json:"extra"`
	Status     ApplicationStatus `gorm:"type:text;not null;index;default:'pending'" json:"status"`
	ReviewedBy string            `gorm:"size:10" json:"reviewed_by"`
	ReviewedAt *time.Time        `json:"reviewed_at"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type CoachProfile struct {
	UserID     string            `gorm:"primaryKey;size:10" json:"user_id"`
	Sport      string            `json:"sport"`
	Experience string            `gorm:"type:text" json:"experience"`
	Credential string            `gorm:"type:text" json:"credential"`
	Extra      datatypes.JSONMap `gorm:"type:jsonb" json:"extra"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type NotificationType string

const (
	NotificationEvalComplete  NotificationType = "eval_complete"
	NotificationEvalStale     NotificationType = "eval_stale"
	NotificationRenewal       NotificationType = "membership_renewal"
	NotificationCoachApproved NotificationType = "coach_approved"
	NotificationOrphanAccount NotificationType = "orphan_account"
)

// Notification rows are append-only; consumers only read and dismiss them.
type Notification struct {
	ID          string           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      string           `gorm:"index;size:10;not null" json:"user_id"`
	Type        NotificationType `gorm:"type:text;not null" json:"type"`
	Title       string           `json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	Link        string           `json:"link"`
	DismissedAt *time.Time       `json:"dismissed_at"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}
