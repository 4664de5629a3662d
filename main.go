/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/weekplan/cmd"
	"github.com/josephgoksu/weekplan/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
