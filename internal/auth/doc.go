// Package auth provides authentication for the sync API.
//
// Users register with a username and password and log in to receive an HS256
// JWT valid for AUTH_TOKEN_EXPIRY (30 days by default). Every /api route
// except register and login requires "Authorization: Bearer <token>": a missing
// token is rejected with 401, an invalid or expired one with 403.
//
// # Configuration
//
//	JWT_SECRET=<random string>          # Auto-generated if empty
//	AUTH_TOKEN_EXPIRY=720h              # Token lifetime
//	AUTH_BCRYPT_COST=10                 # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5           # Failed logins before lockout
//	RATE_LIMIT_REQUESTS=100             # Requests per client IP and window
//	RATE_LIMIT_WINDOW=1m
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService, err := auth.NewService(users.NewRepository(db.DB), cfg.Auth, logger)
//	router.Use(auth.NewMiddleware(authService).Handler())
//
// Extract user in handlers:
//
//	userID := auth.GetUserID(c)
package auth
