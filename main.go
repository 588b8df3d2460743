// The main package for the sayou-healthcare executable.
package main

import (
	"github.com/sayouzone/sayou-healthcare/cmd"
)

func main() {
	cmd.Execute()
}
