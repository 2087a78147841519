package handler

import "github.com/rosterbase/rosterbase/internal/db/models"

// UserView is the API projection of a user account. Credential and soft
// delete fields never leave the server.
type UserView struct {
	ID               uint64 `json:"id"`
	Active           bool   `json:"active"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	EmployeeCode     string `json:"employeeCode"`
	StoreID          uint64 `json:"storeId"`
	RoleID           uint   `json:"roleId"`
	RoleName         string `json:"roleName,omitempty"`
	RoleKind         string `json:"roleKind,omitempty"`
	ExperienceLevel  string `json:"experienceLevel,omitempty"`
	PickerPackerType string `json:"pickerPackerType,omitempty"`
	WeekOffCount     int    `json:"weekOffCount"`
	WeekOffDays      []int  `json:"weekOffDays,omitempty"`
	DefaultShiftName string `json:"defaultShiftName,omitempty"`
	AuthSource       string `json:"authSource"`
}

// NewUserView projects a user model into its API form.
func NewUserView(u *models.User) UserView {
	return UserView{
		ID:               u.ID,
		Active:           u.Active,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		EmployeeCode:     u.EmployeeCode,
		StoreID:          u.StoreID,
		RoleID:           u.RoleID,
		RoleName:         u.Role.Name,
		RoleKind:         string(u.Role.Kind),
		ExperienceLevel:  u.ExperienceLevel,
		PickerPackerType: u.PickerPackerType,
		WeekOffCount:     u.WeekOffCount,
		WeekOffDays:      u.WeekOffDays,
		DefaultShiftName: u.DefaultShiftName,
		AuthSource:       string(u.AuthSource),
	}
}

// NewUserViews projects a slice of user models.
func NewUserViews(users []models.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, NewUserView(&users[i]))
	}

	return views
}
