package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestUserFromClaims(t *testing.T) {
	tests := []struct {
		name      string
		claims    jwt.MapClaims
		wantID    int64
		wantRole  string
		wantPerms []string
		wantErr   bool
	}{
		{"string id", jwt.MapClaims{"id": "42", "permissions": []any{"export.view"}}, 42, RoleViewer, []string{PermExportView}, false},
		{"default role", jwt.MapClaims{"id": float64(7)}, 7, RoleViewer, []string{PermExportCreate, PermExportView, PermExportDelete}, false},
		{"curator", jwt.MapClaims{"id": "3", "role": "curator"}, 3, RoleCurator, []string{PermExportCreate, PermExportView, PermExportViewAll, PermExportDelete, PermDatasetReload}, false},
		{"unknown role", jwt.MapClaims{"id": float64(7), "role": "editor"}, 7, "editor", nil, false},
		{"admin gets all", jwt.MapClaims{"id": "1", "role": "admin"}, 1, RoleAdmin, allPermissions, false},
		{"admin keeps explicit", jwt.MapClaims{"id": "1", "role": "admin", "permissions": []any{"export.view", 3}}, 1, RoleAdmin, []string{PermExportView}, false},
		{"bad id", jwt.MapClaims{"id": "abc"}, 0, "", nil, true},
		{"missing id", jwt.MapClaims{}, 0, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := UserFromClaims(tt.claims)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.UserID != tt.wantID || user.Role != tt.wantRole || !slices.Equal(user.Permissions, tt.wantPerms) {
				t.Fatalf("unexpected user %+v", user)
			}
		})
	}
}

func TestCanAccess(t *testing.T) {
	owner := &AppUser{UserID: 5}
	other := &AppUser{UserID: 6}
	curator := &AppUser{UserID: 6, Role: RoleCurator, Permissions: RolePermissions(RoleCurator)}
	viewer := &AppUser{UserID: 7, Role: RoleViewer, Permissions: RolePermissions(RoleViewer)}

	if !CanAccess(owner, 5) || CanAccess(other, 5) || !CanAccess(curator, 5) || CanAccess(viewer, 5) || CanAccess(nil, 5) {
		t.Fatal("unexpected access decision")
	}
}

func TestAuthAndPermissions(t *testing.T) {
	app := &App{MasterAPIKey: "secret", MasterUserID: 1, MasterUserRole: "admin"}
	e := echo.New()
	e.Use(AppContextMiddleware(app))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/reload", ok, AuthMiddleware, RequirePermission(PermDatasetReload))
	e.GET("/exports", ok, AuthMiddleware, RequireAnyPermission(PermExportView, PermExportViewAll))
	e.GET("/other", ok, AuthMiddleware, RequireAnyPermission("group.view"))

	tests := []struct {
		path   string
		header string
		want   int
	}{
		{"/reload", "", http.StatusUnauthorized},
		{"/reload", "Basic abc", http.StatusUnauthorized},
		{"/reload", "Bearer wrong", http.StatusUnauthorized},
		{"/reload", "Bearer secret", http.StatusNoContent},
		{"/exports", "Bearer secret", http.StatusNoContent},
		{"/other", "Bearer secret", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
