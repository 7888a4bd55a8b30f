package dto

type CreateTeamDTO struct {
	Name        string   `json:"name" binding:"required"`
	Slug        string   `json:"slug"` // auto-generated from Name if empty
	Description string   `json:"description"`
	LeaderID    string   `json:"leaderId"`
	MembersID   []string `json:"membersId"`
}

type UpdateTeamDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	LeaderID    *string `json:"leaderId"`
}

type TeamMemberDTO struct {
	UserID string `json:"userId" binding:"required"`
}
