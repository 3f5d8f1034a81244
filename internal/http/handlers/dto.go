package handlers

import (
	"time"

	"github.com/dropDatabas3/depotmaster/internal/store/core"
)

// userView es la proyección pública de un usuario. El PHC jamás sale.
type userView struct {
	ID                    string    `json:"id"`
	Login                 string    `json:"login"`
	Name                  string    `json:"name,omitempty"`
	Surname               string    `json:"surname,omitempty"`
	Email                 string    `json:"email"`
	PhoneNumber           string    `json:"phone_number,omitempty"`
	GroupID               int64     `json:"group_id"`
	Status                string    `json:"status"`
	TwoFactorEnabled      bool      `json:"two_factor_enabled"`
	IsBlocked             bool      `json:"is_blocked"`
	RequiresPasswordReset bool      `json:"requires_password_reset"`
	CreatedAt             time.Time `json:"created_at"`
}

func toUserView(u *core.User) userView {
	return userView{
		ID:                    u.ID,
		Login:                 u.Login,
		Name:                  u.Name,
		Surname:               u.Surname,
		Email:                 u.Email,
		PhoneNumber:           u.PhoneNumber,
		GroupID:               u.GroupID,
		Status:                u.Status,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		IsBlocked:             u.IsBlocked,
		RequiresPasswordReset: u.RequiresPasswordReset,
		CreatedAt:             u.CreatedAt,
	}
}

type groupView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Rules []int  `json:"rules"`
}

func toGroupView(g *core.Group) groupView {
	rules := g.Rules
	if rules == nil {
		rules = []int{}
	}
	return groupView{ID: g.ID, Name: g.Name, Rules: rules}
}
