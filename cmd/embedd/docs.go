package main

// General API documentation for swaggo. Run `swag init -g cmd/embedd/docs.go -o docs` to regenerate.
//
// @title           embedd API
// @version         1.0
// @description     HTTP gateway for the embedd embedding service.
//
// @contact.name   embedd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
