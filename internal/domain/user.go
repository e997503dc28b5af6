package domain

import "time"

// User is the externally owned account row. Only RecruitStatus and
// ManualTracking are written by this service.
type User struct {
	ID             UserID     `gorm:"primaryKey" db:"id" json:"id"`
	Username       string     `gorm:"type:text;not null;uniqueIndex:ux_users_username" db:"username" json:"username"`
	Name           string     `gorm:"type:text" db:"name" json:"name"`
	RecruitStatus  *string    `gorm:"column:recruit_status;type:text;index" db:"recruit_status" json:"recruitStatus"`
	ManualTracking bool       `gorm:"column:recruit_manual_tracking;not null;default:false" db:"recruit_manual_tracking" json:"manualTracking"`
	JoinedAt       *time.Time `db:"joined_at" json:"joinedAt"`
	CreatedAt      time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (User) TableName() string { return "users" }

// Status returns the stored status key, or "" when none is set.
func (u *User) Status() string {
	if u == nil || u.RecruitStatus == nil {
		return ""
	}
	return *u.RecruitStatus
}

// SetStatus stores key, clearing the attribute when key is blank.
func (u *User) SetStatus(key string) {
	if key == "" {
		u.RecruitStatus = nil
		return
	}
	k := key
	u.RecruitStatus = &k
}

type Group struct {
	ID   GroupID `gorm:"primaryKey" db:"id"`
	Name string  `gorm:"type:text;not null;uniqueIndex:ux_groups_name" db:"name"`
}

func (Group) TableName() string { return "groups" }

type GroupUser struct {
	GroupID GroupID `gorm:"primaryKey" db:"group_id"`
	UserID  UserID  `gorm:"primaryKey;index" db:"user_id"`
}

func (GroupUser) TableName() string { return "group_users" }

// RankPrefix is written by the external ranking integration.
type RankPrefix struct {
	UserID UserID `gorm:"primaryKey" db:"user_id"`
	Prefix string `gorm:"type:varchar(50);not null" db:"prefix"`
}

func (RankPrefix) TableName() string { return "user_rank_prefixes" }
