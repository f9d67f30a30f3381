package gateway

import "net/http"

// CorsPolicy carries the CORS response headers the gateway attaches to
// every endpoint response. Zero-valued fields emit no header.
type CorsPolicy struct {
	AllowOrigin      string
	AllowHeaders     string
	AllowMethods     string
	AllowCredentials string
	MaxAge           string
	ExposeHeaders    string
}

func (p CorsPolicy) headers() map[string]string {
	h := map[string]string{}
	set := func(name, value string) {
		if value != "" {
			h[name] = value
		}
	}
	set("Access-Control-Allow-Origin", p.AllowOrigin)
	set("Access-Control-Allow-Headers", p.AllowHeaders)
	set("Access-Control-Allow-Methods", p.AllowMethods)
	set("Access-Control-Allow-Credentials", p.AllowCredentials)
	set("Access-Control-Max-Age", p.MaxAge)
	set("Access-Control-Expose-Headers", p.ExposeHeaders)
	return h
}

// applyCors attaches the policy's headers to every response.
func applyCors(policy CorsPolicy) func(http.Handler) http.Handler {
	headers := policy.headers()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for name, value := range headers {
				w.Header().Set(name, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
