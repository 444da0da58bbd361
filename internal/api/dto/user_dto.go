package dto

import "github.com/spec-kit/flashdash-service/internal/domain"

// UserProfile is the serialized account shape. The password hash never
// appears here.
type UserProfile struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserProfile maps a domain user to its response shape.
func NewUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// NewUserProfiles maps a list of users preserving order.
func NewUserProfiles(users []domain.User) []UserProfile {
	profiles := make([]UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, NewUserProfile(&users[i]))
	}
	return profiles
}

// CreateUserRequest payload for admin provisioning.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest payload for admin partial update. Absent fields stay
// untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateRoleRequest payload for the role update endpoint.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}
