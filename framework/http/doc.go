// Package http provides Laravel-compatible request and response helpers for
// handlers running behind routing.ScopeMiddleware.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var in users.CreateUser
//	if err := req.Bind(&in); err != nil { ... } // JSON, form or multipart
//
//	req.RouteParam("id")
//
//	// Services from the request scope
//	scope, ok := req.Scope()
//	svc, err := req.Make(users.ServiceKey)
//
// Make without a scope fails with container.ErrNoActiveScope.
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(data)   // 200 {"data": ...}
//	res.Created(data)   // 201 {"data": ...}
//	res.NoContent()     // 204
//
// Problem picks the status from the error a service returned:
//
//	res.Problem(err, cfg.App.Debug)
//
//	*validation.Errors or validator errors  → 422 {"errors": {...}}
//	errors.Is(err, gohttp.ErrNotFound)      → 404
//	*container.ResolutionError              → 503
//	anything else                           → 500
package http
