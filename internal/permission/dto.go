package permission

type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}

type PermissionsResponse struct {
	Permissions []PagePermission `json:"permissions"`
}

type CheckResponse struct {
	PageID  string `json:"page_id"`
	Role    string `json:"role"`
	Allowed bool   `json:"allowed"`
}

type NavigationItem struct {
	PageID string `json:"page_id"`
	Label  string `json:"label"`
	Path   string `json:"path"`
}

type NavigationResponse struct {
	Items []NavigationItem `json:"items"`
}

func ToNavigation(perms []PagePermission) NavigationResponse {
	items := make([]NavigationItem, 0, len(perms))
	for _, p := range perms {
		items = append(items, NavigationItem{PageID: p.PageID, Label: p.Label, Path: p.Path})
	}
	return NavigationResponse{Items: items}
}
