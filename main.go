package main

import (
	"github.com/pixperk/spssprep/cmd"
	"github.com/pixperk/spssprep/internal/logx"
)

func main() {
	logx.InitLogger()
	defer logx.Sync()
	cmd.Execute()
}
