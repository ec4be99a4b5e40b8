package router

import "github.com/gin-gonic/gin"

// Module registers one resource's routes on the group it is mounted under.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// ModuleFunc lets a plain route function be mounted as a Module.
type ModuleFunc func(rg *gin.RouterGroup)

func (f ModuleFunc) Register(rg *gin.RouterGroup) { f(rg) }
