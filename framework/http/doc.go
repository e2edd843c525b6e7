// Package http provides request and response helpers and the bean inspector.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//	scope := req.Query("scope", "singleton")
//	all   := req.QueryAll()          // map[string]string
//	name  := req.RouteParam("name")  // requires the chi router
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(views)               // 200 {"data": views}
//	res.NotFound("No bean named 'x' is defined.")
//	res.ValidationError(v.Errors())  // 422 {"errors": {...}}
//
// # Inspector
//
// Inspector serves a read-only JSON view of a container:
//
//	gohttp.NewInspector(c, logger).Routes(router)
//
//	GET /health       status, definition and singleton counts
//	GET /beans        definitions; filters: scope, lazy, instantiated, type
//	GET /beans/{name} one definition, by name or alias
//	GET /singletons   pooled singletons with their dependency edges
package http
