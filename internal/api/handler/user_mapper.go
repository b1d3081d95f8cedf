package handler

import (
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Username: req.Username,
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Fullname: u.Fullname,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	return loginResponse{
		UserData: userDataResponse{
			ID:           r.User.ID,
			Username:     r.User.Username,
			Fullname:     r.User.Fullname,
			Email:        r.User.Email,
			IsAdmin:      r.User.IsAdmin,
			SessionToken: r.Token.String(),
			ExpiresAt:    r.ExpiresAt.UTC(),
		},
	}
}

// toListUsersResponse always yields a JSON array, never null.
func toListUsersResponse(users []*domain.User) listUsersResponse {
	items := make([]userResponse, len(users))
	for i, u := range users {
		items[i] = toUserResponse(u)
	}
	return listUsersResponse{Users: items}
}
