package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/http/validation"
	"github.com/km-arc/go-beans/framework/routing"
)

// BeanView is the JSON shape of one bean definition.
type BeanView struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	Scope        string   `json:"scope"`
	Lazy         bool     `json:"lazy"`
	Primary      bool     `json:"primary"`
	Description  string   `json:"description,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	DependsOn    []string `json:"depends_on,omitempty"`
	Properties   []string `json:"properties,omitempty"`
	Instantiated bool     `json:"instantiated"`
}

// SingletonView is the JSON shape of one pooled singleton.
type SingletonView struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
}

// Inspector serves a read-only view of a container.
type Inspector struct {
	c      *container.Container
	logger *zap.Logger
}

// NewInspector creates an Inspector over c.
func NewInspector(c *container.Container, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{c: c, logger: logger}
}

// MaxPageSize caps the limit accepted by GET /beans.
const MaxPageSize = 500

var beanQueryRules = validation.Rules{
	"scope":        "sometimes|in:singleton,prototype",
	"lazy":         "sometimes|boolean",
	"instantiated": "sometimes|boolean",
	"limit":        fmt.Sprintf("sometimes|integer|min:1|max:%d", MaxPageSize),
	"offset":       "sometimes|integer|min:0",
}

// Bean names are non-empty, carry no whitespace and are not dot segments.
var beanNameRules = validation.Rules{
	"name": `required|not_in:.,..|regex:^\S+$`,
}

// Routes mounts the inspector endpoints on r.
//
//	GET /health
//	GET /beans?scope=&lazy=&instantiated=&type=&limit=&offset=
//	GET /beans/{name}
//	GET /singletons
func (in *Inspector) Routes(r *routing.Router) {
	r.Get("/health", in.Health)
	r.Prefix("/beans", func(b *routing.Router) {
		b.Get("/", in.Beans)
		b.Get("/{name}", in.Bean)
	})
	r.Get("/singletons", in.Singletons)
}

// acceptable answers 406 unless the client accepts JSON.
func acceptable(req *Request, res *Response) bool {
	if req.Wants("application/json") {
		return true
	}
	res.Error(http.StatusNotAcceptable, "The inspector only serves application/json.")
	return false
}

// Health reports container counts.
func (in *Inspector) Health(w http.ResponseWriter, r *http.Request) {
	res := NewResponse(w)
	if !acceptable(NewRequest(r), res) {
		return
	}
	res.JSON(http.StatusOK, envelope{
		"status":      "ok",
		"definitions": len(in.c.BeanDefinitionNames()),
		"singletons":  in.c.Registry().SingletonCount(),
		"frozen":      in.c.IsConfigurationFrozen(),
	})
}

// Beans lists definitions, optionally filtered and paged with limit and
// offset.
func (in *Inspector) Beans(w http.ResponseWriter, r *http.Request) {
	req, res := NewRequest(r), NewResponse(w)
	if !acceptable(req, res) {
		return
	}
	query := req.QueryAll()

	v := validation.Make(query, beanQueryRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	out := make([]BeanView, 0)
	for _, name := range in.c.BeanDefinitionNames() {
		view, err := in.view(name)
		if err != nil {
			// removed concurrently
			continue
		}
		if !matches(view, query) {
			continue
		}
		out = append(out, view)
	}
	res.Success(page(out, query))
}

func page(views []BeanView, query map[string]string) []BeanView {
	offset := min(cast.ToInt(query["offset"]), len(views))
	views = views[offset:]
	if limit := cast.ToInt(query["limit"]); limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views
}

// Bean describes a single definition by name or alias.
func (in *Inspector) Bean(w http.ResponseWriter, r *http.Request) {
	req, res := NewRequest(r), NewResponse(w)
	if !acceptable(req, res) {
		return
	}
	name := req.RouteParam("name")

	v := validation.Make(map[string]string{"name": name}, beanNameRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	view, err := in.view(name)
	switch {
	case errors.Is(err, container.ErrNoSuchBean):
		res.NotFound(fmt.Sprintf("No bean named '%s' is defined.", name))
	case err != nil:
		in.logger.Error("describe bean",
			zap.String("bean", name),
			zap.String("request_id", middleware.GetReqID(req.Raw().Context())),
			zap.Error(err))
		res.ServerError()
	default:
		res.Success(view)
	}
}

// Singletons lists pooled singletons in registration order.
func (in *Inspector) Singletons(w http.ResponseWriter, r *http.Request) {
	res := NewResponse(w)
	if !acceptable(NewRequest(r), res) {
		return
	}
	reg := in.c.Registry()
	out := make([]SingletonView, 0, reg.SingletonCount())
	for _, name := range reg.SingletonNames() {
		obj, ok := reg.Singleton(name)
		if !ok {
			continue
		}
		out = append(out, SingletonView{
			Name:         name,
			Type:         fmt.Sprintf("%T", obj),
			Dependencies: reg.DependenciesFor(name),
			Dependents:   reg.DependentBeans(name),
		})
	}
	res.Success(out)
}

func (in *Inspector) view(name string) (BeanView, error) {
	def, err := in.c.BeanDefinition(name)
	if err != nil {
		return BeanView{}, err
	}
	canonical := in.c.CanonicalName(name)

	view := BeanView{
		Name:         canonical,
		Scope:        string(def.Scope),
		Lazy:         def.Lazy,
		Primary:      def.Primary,
		Description:  def.Description,
		Aliases:      in.c.Aliases(canonical),
		DependsOn:    def.DependsOn,
		Instantiated: in.c.ContainsSingleton(canonical),
	}
	if t := def.BeanType(); t != nil {
		view.Type = t.String()
	}
	for _, pv := range def.Properties.All() {
		view.Properties = append(view.Properties, pv.Name)
	}
	return view, nil
}

func matches(v BeanView, query map[string]string) bool {
	if s := query["scope"]; s != "" && s != v.Scope {
		return false
	}
	if s := query["lazy"]; s != "" && cast.ToBool(strings.ToLower(s)) != v.Lazy {
		return false
	}
	if s := query["instantiated"]; s != "" && cast.ToBool(strings.ToLower(s)) != v.Instantiated {
		return false
	}
	if s := query["type"]; s != "" && !strings.Contains(v.Type, s) {
		return false
	}
	return true
}
