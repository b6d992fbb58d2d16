package main

import (
	"os"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
