package middlewares

import (
	"net/http"

	"github.com/benvanstaveren/dbhelper"
)

// DB stores the registry in the request context so handler code can
// fetch handles with dbhelper.FromContext or dbhelper.ConnFromContext.
func DB(reg *dbhelper.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(dbhelper.NewContext(r.Context(), reg)))
		})
	}
}
