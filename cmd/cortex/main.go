// Package main provides the Cortex engine CLI.
package main

import (
	"fmt"
	"os"

	cortex "github.com/cortex-ml/cortex"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Cortex %s\n", cortex.Version)
			return
		case "sysinfo":
			info := cortex.SystemInfo()
			fmt.Printf("Cortex %s\n", info.Version)
			fmt.Printf("Go:           %s\n", info.GoVersion)
			fmt.Printf("Platform:     %s/%s\n", info.OS, info.Arch)
			fmt.Printf("CPUs:         %d\n", info.CPUs)
			fmt.Printf("Capabilities: %s\n", info.Capabilities)
			fmt.Printf("Wide SIMD:    %v\n", info.WideSIMD)
			fmt.Printf("FMA:          %v\n", info.FMA)
			return
		}
	}

	fmt.Println("Cortex - feed-forward neural engine for Go")
	fmt.Printf("Version: %s\n\n", cortex.Version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  sysinfo    Show runtime and CPU capability information")
}
