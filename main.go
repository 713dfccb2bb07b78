/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/ContextWing/cmd"
	"github.com/josephgoksu/ContextWing/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
