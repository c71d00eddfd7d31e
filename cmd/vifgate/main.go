/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/vifgate/cmd/vifgate/cmd"
)

func main() {
	cmd.Execute()
}
