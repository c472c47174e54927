package users

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/routing"
)

// Controller is the /api/users resource. It resolves a Service from the
// request scope on every call.
type Controller struct {
	// Debug sends error text in 5xx bodies.
	Debug bool
}

var _ routing.ResourceController = (*Controller)(nil)

func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	svc, err := c.service(r)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	list, err := svc.List(r.Context())
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	res.Success(list)
}

func (c *Controller) Store(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	svc, err := c.service(r)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	var in CreateUser
	if err := gohttp.NewRequest(r).Bind(&in); err != nil {
		res.Error(http.StatusBadRequest, "Malformed request body.")
		return
	}
	u, err := svc.Create(r.Context(), in)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	res.Created(u)
}

func (c *Controller) Show(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id, ok := userID(r)
	if !ok {
		res.NotFound()
		return
	}
	svc, err := c.service(r)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	u, err := svc.Find(r.Context(), id)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	res.Success(u)
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id, ok := userID(r)
	if !ok {
		res.NotFound()
		return
	}
	svc, err := c.service(r)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	var in UpdateUser
	if err := gohttp.NewRequest(r).Bind(&in); err != nil {
		res.Error(http.StatusBadRequest, "Malformed request body.")
		return
	}
	u, err := svc.Update(r.Context(), id, in)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	res.Success(u)
}

func (c *Controller) Destroy(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id, ok := userID(r)
	if !ok {
		res.NotFound()
		return
	}
	svc, err := c.service(r)
	if err != nil {
		res.Problem(err, c.Debug)
		return
	}
	if err := svc.Delete(r.Context(), id); err != nil {
		res.Problem(err, c.Debug)
		return
	}
	res.NoContent()
}

func (c *Controller) service(r *http.Request) (*Service, error) {
	v, err := gohttp.NewRequest(r).Make(ServiceKey)
	if err != nil {
		return nil, err
	}
	svc, ok := v.(*Service)
	if !ok {
		return nil, fmt.Errorf("%w: [%s] resolved to %T", container.ErrTypeMismatch, ServiceKey, v)
	}
	return svc, nil
}

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(gohttp.NewRequest(r).RouteParam("id"), 10, 64)
	return id, err == nil && id > 0
}
