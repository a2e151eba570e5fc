package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

const (
	PermExportCreate  = "export.create"
	PermExportView    = "export.view"
	PermExportViewAll = "export.view:all"
	PermExportDelete  = "export.delete"
	PermDatasetReload = "dataset.reload"
)

const (
	// RoleViewer exports charts and manages their own exports.
	RoleViewer = "viewer"
	// RoleCurator also maintains the dataset and sees every export.
	RoleCurator = "curator"
	RoleAdmin   = "admin"
)

var allPermissions = []string{
	PermExportCreate,
	PermExportView,
	PermExportViewAll,
	PermExportDelete,
	PermDatasetReload,
}

var rolePermissions = map[string][]string{
	RoleViewer:  {PermExportCreate, PermExportView, PermExportDelete},
	RoleCurator: {PermExportCreate, PermExportView, PermExportViewAll, PermExportDelete, PermDatasetReload},
	RoleAdmin:   allPermissions,
}

// RolePermissions lists the permissions a role grants when a token names
// none explicitly. Unknown roles grant nothing.
func RolePermissions(role string) []string {
	return slices.Clone(rolePermissions[role])
}

func HasPermission(user *AppUser, permission string) bool {
	return user != nil && slices.Contains(user.Permissions, permission)
}

// CanAccess reports whether user may see an export created by owner.
func CanAccess(user *AppUser, owner int64) bool {
	return user != nil && (user.UserID == owner || HasPermission(user, PermExportViewAll))
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !HasPermission(user, permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}
			return next(c)
		}
	}
}

// RequireAnyPermission passes users holding at least one of permissions.
func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !slices.ContainsFunc(permissions, func(p string) bool { return HasPermission(user, p) }) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing required permission"})
			}
			return next(c)
		}
	}
}
