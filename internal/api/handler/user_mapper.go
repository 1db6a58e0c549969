package handler

import (
	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Active:    req.Active,
	}
}

func toPatchInput(req patchUserRequest) ports.PatchUserInput {
	return ports.PatchUserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Active:    req.Active,
	}
}

func toListInput(q listUsersQuery) ports.ListUsersInput {
	return ports.ListUsersInput{
		Username:  q.Username,
		Email:     q.Email,
		FirstName: q.FirstName,
		LastName:  q.LastName,
		Role:      q.Role,
		Active:    q.Active,
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortDesc:  q.SortDesc,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func toListResponse(p *ports.UserPage) listUsersResponse {
	data := make([]userResponse, 0, len(p.Items))
	for _, u := range p.Items {
		data = append(data, toUserResponse(u))
	}
	return listUsersResponse{
		Data: data,
		Meta: pageMeta{
			Total:      p.Total,
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalPages: p.TotalPages,
			HasNext:    p.HasNext,
			HasPrev:    p.HasPrev,
		},
	}
}

func toStatisticsResponse(s *domain.UserStatistics) statisticsResponse {
	byRole := make(map[string]int64, len(s.ByRole))
	for role, n := range s.ByRole {
		byRole[string(role)] = n
	}
	return statisticsResponse{
		TotalUsers:    s.Total,
		ActiveUsers:   s.Active,
		InactiveUsers: s.Inactive,
		ByRole:        byRole,
	}
}
