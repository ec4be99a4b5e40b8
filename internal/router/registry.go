package router

import "github.com/gin-gonic/gin"

const (
	// APIPrefix versions the public API.
	APIPrefix = "/api/v1"
	// DebugPrefix hosts operational endpoints outside the versioned API.
	DebugPrefix = "/api"
)

type mount struct {
	prefix string
	mod    Module
}

// Registry collects modules and mounts them on the engine in the order they
// were added.
type Registry struct {
	Engine      *gin.Engine
	middlewares []gin.HandlerFunc
	mounts      []mount
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine}
}

// Use adds middleware to every module group.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add mounts mod under APIPrefix.
func (r *Registry) Add(mod Module) {
	r.Mount(APIPrefix, mod)
}

// Mount mounts mod under prefix.
func (r *Registry) Mount(prefix string, mod Module) {
	r.mounts = append(r.mounts, mount{prefix: prefix, mod: mod})
}

func (r *Registry) RegisterAll() {
	groups := map[string]*gin.RouterGroup{}
	for _, m := range r.mounts {
		rg, ok := groups[m.prefix]
		if !ok {
			rg = r.Engine.Group(m.prefix, r.middlewares...)
			groups[m.prefix] = rg
		}
		m.mod.Register(rg)
	}
}
