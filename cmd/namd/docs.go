package main

// General API documentation for swaggo. Run `swag init -g cmd/namd/docs.go -o internal/httpapi/docs` to regenerate.
//
// @title           namd API
// @version         1.0
// @description     HTTP control API for the neural amp model host.
//
// @contact.name   namd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
