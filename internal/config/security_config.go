// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
	SecurityAdmin                        // Access token with admin role required
)

// EndpointSecurityConfig maps "METHOD /route/template" to its required security level.
// Routes that are not listed require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health and auth - Public
	"GET /health":                SecurityPublic,
	"POST /api/v1/auth/register": SecurityPublic,
	"POST /api/v1/auth/login":    SecurityPublic,

	// Auth - Refresh Protected
	"POST /api/v1/auth/refresh": SecurityRefresh,

	// Catalog browsing - Public
	"GET /api/v1/products":      SecurityPublic,
	"GET /api/v1/products/{id}": SecurityPublic,

	// Local storage - Public (URLs are handed out by authenticated endpoints)
	"PUT /api/v1/upload/{token}": SecurityPublic,
	"GET /api/v1/download/{key}": SecurityPublic,

	// Users - Admin
	"GET /api/v1/users":             SecurityAdmin,
	"PATCH /api/v1/users/{id}/role": SecurityAdmin,

	// Products - Admin
	"POST /api/v1/products":             SecurityAdmin,
	"PUT /api/v1/products/{id}":         SecurityAdmin,
	"DELETE /api/v1/products/{id}":      SecurityAdmin,
	"PATCH /api/v1/products/{id}/stock": SecurityAdmin,
	"PUT /api/v1/products/{id}/pricing": SecurityAdmin,
	"POST /api/v1/products/{id}/image":  SecurityAdmin,

	// Rental requests - Admin transitions
	"PATCH /api/v1/rental-requests/{id}/approve":        SecurityAdmin,
	"PATCH /api/v1/rental-requests/{id}/reject":         SecurityAdmin,
	"PATCH /api/v1/rental-requests/{id}/confirm":        SecurityAdmin,
	"PATCH /api/v1/rental-requests/{id}/payment-status": SecurityAdmin,

	// Reservations - Admin
	"POST /api/v1/reservations":              SecurityAdmin,
	"PATCH /api/v1/reservations/{id}/status": SecurityAdmin,

	// Deliveries - Admin (delivery staff are admins)
	"GET /api/v1/deliveries":                   SecurityAdmin,
	"GET /api/v1/deliveries/{id}":              SecurityAdmin,
	"GET /api/v1/deliveries/{id}/document":     SecurityAdmin,
	"PATCH /api/v1/deliveries/{id}/status":     SecurityAdmin,
	"PATCH /api/v1/deliveries/{id}/assign":     SecurityAdmin,
	"PATCH /api/v1/deliveries/{id}/reschedule": SecurityAdmin,

	// Invoices - Admin
	"POST /api/v1/invoices":                  SecurityAdmin,
	"PATCH /api/v1/invoices/{id}/send":       SecurityAdmin,
	"PATCH /api/v1/invoices/{id}/cancel":     SecurityAdmin,
	"DELETE /api/v1/invoices/{id}":           SecurityAdmin,
	"POST /api/v1/invoices/update-late-fees": SecurityAdmin,

	// Notifications - Admin
	"POST /api/v1/notifications/process-scheduled": SecurityAdmin,

	// Settings - Admin
	"PUT /api/v1/settings/business": SecurityAdmin,

	// Reports - Admin
	"GET /api/v1/reports/summary": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route, defaulting to SecurityAccess
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
