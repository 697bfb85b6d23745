package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/Antonpb/alfaapp/internal/cli"
)

// Embedded upload page
//
//go:embed all:frontend/*
var frontendFiles embed.FS

func main() {
	var frontendFS fs.FS
	if sub, err := fs.Sub(frontendFiles, "frontend"); err == nil {
		frontendFS = sub
	}

	if err := cli.Execute(frontendFS); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
