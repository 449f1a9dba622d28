package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/abdabkim/webdevacademy/internal/interfaces/rest/middleware"
	"github.com/labstack/echo/v4"
)

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	name        string // logged as route.name, eg. courses.start
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

func createEndpoint(app *echo.Echo, def *endpoint) {
	type RESTMethod func(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

	root := app.Group("/"+strings.TrimPrefix(def.apiVersion, "/"), def.middlewares...)
	for _, group := range def.groups {
		echoGroup := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			var method RESTMethod
			switch api.method {
			case http.MethodGet:
				method = echoGroup.GET
			case http.MethodPost:
				method = echoGroup.POST
			case http.MethodPut:
				method = echoGroup.PUT
			case http.MethodPatch:
				method = echoGroup.PATCH
			case http.MethodDelete:
				method = echoGroup.DELETE
			case http.MethodHead:
				method = echoGroup.HEAD
			default:
				panic(fmt.Errorf("createEndpoint: unknown method %s", api.method))
			}
			middlewares := append([]echo.MiddlewareFunc{middleware.NameRoute(api.name)}, api.middlewares...)
			method(api.path, api.handler, middlewares...).Name = api.name
		}
	}
}
