// Package main is the entry point of the task manager platform. One binary
// runs any of the task, worker and performance roles.
//
// @title          Task Manager API
// @version        1.0
// @description    Role services of the task manager platform: task, worker and performance.
// @host           localhost:8081
// @BasePath       /
// @schemes        http
package main

func main() {
	Execute()
}
