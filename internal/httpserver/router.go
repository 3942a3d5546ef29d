package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/middleware"
)

type Deps struct {
	Auth   *AuthHTTP
	Books  *BookHTTP
	Loans  *LoanHTTP
	Users  *UserHTTP
	AuthMW *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/create-admin", d.Auth.CreateAdmin)
	auth.POST("/logout", d.Auth.Logout, d.AuthMW.RequireAuth)
	auth.POST("/logout-all", d.Auth.LogoutAll, d.AuthMW.RequireAuth)

	books := e.Group("/books")
	books.GET("", d.Books.List)
	books.GET("/search", d.Books.Search)
	books.GET("/:id", d.Books.Get)
	books.POST("", d.Books.Create, d.AuthMW.RequireAdmin)
	books.PUT("/:id", d.Books.Update, d.AuthMW.RequireAdmin)
	books.DELETE("/:id", d.Books.Delete, d.AuthMW.RequireAdmin)

	loans := e.Group("/loans")
	loans.GET("", d.Loans.List, d.AuthMW.RequireAdmin)
	loans.GET("/:id", d.Loans.Get, d.AuthMW.RequireAuth)
	loans.POST("/checkout", d.Loans.Checkout, d.AuthMW.RequireAuth)
	loans.PUT("/return/:id", d.Loans.Return, d.AuthMW.RequireAdmin)

	users := e.Group("/users")
	users.GET("/me", d.Users.Me, d.AuthMW.RequireAuth)
	users.PATCH("/me", d.Users.UpdateMe, d.AuthMW.RequireAuth)
	users.GET("", d.Users.List, d.AuthMW.RequireAdmin)
	users.GET("/:id", d.Users.Get, d.AuthMW.RequireAdmin)
	users.DELETE("/:id", d.Users.Delete, d.AuthMW.RequireAdmin)
	users.PUT("/:id/role", d.Users.UpdateRole, d.AuthMW.RequireAdmin)
}
