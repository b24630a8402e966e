package models

import "time"

// Team groups users; members see the properties linked to their teams.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Members    []TeamMember `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Properties []Property   `gorm:"many2many:property_teams;constraint:OnDelete:CASCADE" json:"-"`
}

// TeamMember links a user to a team, unique per pair.
type TeamMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_team_member_user_team" json:"user_id"`
	TeamID   uint      `gorm:"not null;uniqueIndex:idx_team_member_user_team;index" json:"team_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Team *Team `json:"team,omitempty"`
}
