package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

var protectedPages = []string{"/dashboard", "/profile", "/settings"}

func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// RouteGuard redirects browser page requests based on the session cookie:
// protected pages need a session, the auth page is skipped when signed in.
func RouteGuard(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		signedIn := func() bool {
			raw, err := c.Cookie(SessionCookie)
			if err != nil || raw == "" {
				return false
			}
			_, err = Verify(secret, raw)
			return err == nil
		}

		for _, p := range protectedPages {
			if underPath(path, p) {
				if !signedIn() {
					c.Redirect(http.StatusFound, "/auth?mode=login&from="+url.QueryEscape(path))
					c.Abort()
					return
				}
				c.Next()
				return
			}
		}
		if underPath(path, "/auth") && signedIn() {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}
