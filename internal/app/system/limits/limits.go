// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of any JSON request body. Every
	// payload this API accepts is a handful of short fields.
	MaxJSONBody = 1 << 20 // 1 MB
)
