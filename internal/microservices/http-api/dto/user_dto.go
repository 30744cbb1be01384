package dto

import "yamdb/internal/microservices/http-api/models"

// CreateUserDTO used by admins for POST /v1/users/
type CreateUserDTO struct {
	Username  string      `json:"username" binding:"required,max=150,username,notme"`
	Email     string      `json:"email" binding:"required,max=254,email"`
	FirstName string      `json:"first_name" binding:"max=150"`
	LastName  string      `json:"last_name" binding:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" binding:"omitempty,role"`
}

// UpdateUserDTO used for PATCH /v1/users/{username}/ and /v1/users/me/ (partial updates)
type UpdateUserDTO struct {
	Username  *string      `json:"username,omitempty" binding:"omitnil,min=1,max=150,username,notme"`
	Email     *string      `json:"email,omitempty" binding:"omitnil,max=254,email"`
	FirstName *string      `json:"first_name,omitempty" binding:"omitnil,max=150"`
	LastName  *string      `json:"last_name,omitempty" binding:"omitnil,max=150"`
	Bio       *string      `json:"bio,omitempty"`
	Role      *models.Role `json:"role,omitempty" binding:"omitnil,role"`
}

// ApplyTo copies the provided fields onto u. Role is only applied when
// allowRole is set, users cannot promote themselves through /me.
func (d UpdateUserDTO) ApplyTo(u *models.User, allowRole bool) {
	if d.Username != nil {
		u.Username = *d.Username
	}
	if d.Email != nil {
		u.Email = *d.Email
	}
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		u.LastName = *d.LastName
	}
	if d.Bio != nil {
		u.Bio = *d.Bio
	}
	if allowRole && d.Role != nil {
		u.Role = *d.Role
	}
}

type UserResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func FromModelToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}
