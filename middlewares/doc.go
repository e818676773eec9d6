// Package middlewares wires the dbhelper registry into chi-based HTTP
// applications: a context-injection middleware for handler access and
// liveness/readiness endpoints that probe every registered database.
//
//	r := chi.NewRouter()
//	r.Use(middlewares.DB(reg))
//	middlewares.Mount(r, reg)
package middlewares
