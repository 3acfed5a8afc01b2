package models

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCoach     Role = "coach"
	RoleRecruiter Role = "recruiter"
	RoleParent    Role = "parent"
	RoleAthlete   Role = "athlete"
)

// Tier is a membership level gating feature access.
// Ordering: free < pro_monthly < championship_yearly.
type Tier string

const (
	TierFree         Tier = "free"
	TierProMonthly   Tier = "pro_monthly"
	TierChampionship Tier = "championship_yearly"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipTrialing  MembershipStatus = "trialing"
	MembershipCancelled MembershipStatus = "cancelled"
	MembershipExpired   MembershipStatus = "expired"
)

type EvaluationStatus string

const (
	EvaluationPending    EvaluationStatus = "pending"
	EvaluationInProgress EvaluationStatus = "in_progress"
	EvaluationCompleted  EvaluationStatus = "completed"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)
