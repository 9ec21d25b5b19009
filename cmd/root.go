package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "fintrace"}

	root.AddCommand(serveCMD(), migrateCMD(), resolveCMD())
	_ = root.Execute()
}
